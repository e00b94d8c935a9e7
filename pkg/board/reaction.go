package board

import (
	"context"
	"sync"

	"desabafa/pkg/models"
)

type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comentario"
)

// Target identifies a reactable item. AuthorID is nil for anonymous items.
type Target struct {
	Kind     TargetKind
	ID       string
	AuthorID *string
}

func (t Target) key() string { return string(t.Kind) + ":" + t.ID }

func PostTarget(p models.Post) Target {
	return Target{Kind: TargetPost, ID: p.ID, AuthorID: p.AutorID}
}

func CommentTarget(c models.Comment) Target {
	return Target{Kind: TargetComment, ID: c.ID, AuthorID: c.AutorID}
}

type Phase int

const (
	Idle Phase = iota
	Pending
)

func (p Phase) String() string {
	if p == Pending {
		return "pending"
	}
	return "idle"
}

type ReactionState struct {
	Liked bool
	Count int
}

// Toggler flips the viewer's reaction on the service and returns the
// resulting membership.
type Toggler interface {
	ToggleReaction(ctx context.Context, kind TargetKind, id string) (models.ReactionResult, error)
}

// Reaction is the optimistic like state machine for one item. The saved
// value is only meaningful while pending and is consumed by exactly one of
// settle or rollback.
type Reaction struct {
	mu     sync.Mutex
	target Target
	state  ReactionState
	phase  Phase
	saved  ReactionState
}

func NewReaction(target Target, initial ReactionState) *Reaction {
	return &Reaction{target: target, state: initial}
}

func (r *Reaction) Target() Target { return r.target }

func (r *Reaction) State() (ReactionState, Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.phase
}

// Sync adopts a fresh server view of the item. It is ignored while a toggle
// is in flight.
func (r *Reaction) Sync(s ReactionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == Idle {
		r.state = s
	}
}

// Toggle runs the full idle → pending → idle cycle against backend. Guard
// failures return before any state change or network call.
func (r *Reaction) Toggle(ctx context.Context, viewerID string, backend Toggler) (ReactionState, error) {
	if err := r.begin(viewerID); err != nil {
		st, _ := r.State()
		return st, err
	}

	res, err := backend.ToggleReaction(ctx, r.target.Kind, r.target.ID)
	if err != nil {
		return r.rollback(), err
	}
	return r.settle(res), nil
}

func (r *Reaction) begin(viewerID string) error {
	if viewerID == "" {
		return ErrUnauthenticated
	}
	if r.target.AuthorID != nil && *r.target.AuthorID == viewerID {
		return ErrSelfReaction
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == Pending {
		return ErrTogglePending
	}
	r.saved = r.state
	r.phase = Pending
	r.state = flip(r.state)
	return nil
}

// settle trusts the service's boolean and adopts its total, which also
// carries other viewers' likes. A liked answer with a zero total carries no
// count, so the count is then derived from the saved value.
func (r *Reaction) settle(res models.ReactionResult) ReactionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != Pending {
		return r.state
	}
	next := ReactionState{Liked: res.Liked, Count: max(res.Total, 0)}
	if res.Liked && res.Total <= 0 {
		next.Count = r.saved.Count
		if !r.saved.Liked {
			next.Count++
		}
	}
	r.state = next
	r.phase = Idle
	return r.state
}

func (r *Reaction) rollback() ReactionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != Pending {
		return r.state
	}
	r.state = r.saved
	r.phase = Idle
	return r.state
}

func flip(s ReactionState) ReactionState {
	if s.Liked {
		return ReactionState{Liked: false, Count: max(s.Count-1, 0)}
	}
	return ReactionState{Liked: true, Count: s.Count + 1}
}

// Reactions keeps one state machine per item so repeated renders of the same
// item share the pending guard.
type Reactions struct {
	mu    sync.Mutex
	items map[string]*Reaction
}

func NewReactions() *Reactions {
	return &Reactions{items: map[string]*Reaction{}}
}

// For returns the machine for target, creating it from initial on first use.
// An existing idle machine is synced to initial.
func (rs *Reactions) For(target Target, initial ReactionState) *Reaction {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if r, ok := rs.items[target.key()]; ok {
		r.Sync(initial)
		return r
	}
	r := NewReaction(target, initial)
	rs.items[target.key()] = r
	return r
}

func (rs *Reactions) Forget(target Target) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.items, target.key())
}
