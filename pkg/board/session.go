package board

import (
	"context"
	"sync"

	"desabafa/pkg/logger"
	"desabafa/pkg/models"

	"go.uber.org/zap"
)

// EventSource delivers auth.session events. Subscribe keeps delivering until
// ctx ends or the returned stop func is called.
type EventSource interface {
	Subscribe(ctx context.Context, fn func(models.SessionEvent)) (stop func(), err error)
}

// ProfileSource resolves the signed-in user's profile, creating the default
// one on first sign-in.
type ProfileSource interface {
	Me(ctx context.Context) (models.Profile, error)
}

// Session owns the signed-in user and plan for one client. It replaces any
// ambient global: components get it passed in, and Start/Stop bracket its
// life.
type Session struct {
	events   EventSource
	profiles ProfileSource
	tracker  *Tracker
	log      *zap.Logger

	mu      sync.Mutex
	user    *models.Profile
	seq     uint64
	started bool
	stop    func()
	cancel  context.CancelFunc
	subs    map[int]func(*models.Profile)
	nextSub int
}

func NewSession(events EventSource, profiles ProfileSource, tracker *Tracker) *Session {
	if tracker == nil {
		tracker = NewTracker(models.PlanFree)
	}
	return &Session{
		events:   events,
		profiles: profiles,
		tracker:  tracker,
		log:      logger.Named("session"),
		subs:     map[int]func(*models.Profile){},
	}
}

func (s *Session) Tracker() *Tracker { return s.tracker }

// Start subscribes to session events. A second call fails with
// ErrSessionStarted, even after Stop.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	s.started = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	stop, err := s.events.Subscribe(ctx, func(ev models.SessionEvent) {
		s.Handle(ctx, ev)
	})
	if err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return nil
}

// Stop ends the subscription and clears the user.
func (s *Session) Stop() {
	s.mu.Lock()
	stop, cancel := s.stop, s.cancel
	s.stop, s.cancel = nil, nil
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	// cancel first: stop waits for the event goroutine, which may be inside
	// a profile fetch bound to this ctx
	if cancel != nil {
		cancel()
	}
	if stop != nil {
		stop()
	}
	s.apply(seq, nil)
}

// Handle applies one session event. Sign-out clears the user; anything else
// resolves the profile. Results of an older event never overwrite a newer one.
func (s *Session) Handle(ctx context.Context, ev models.SessionEvent) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	if ev.SignedOut() {
		s.apply(seq, nil)
		return
	}

	p, err := s.profiles.Me(ctx)
	if err != nil {
		s.log.Warn("perfil indisponível", zap.String("event", ev.Event), zap.Error(err))
		s.apply(seq, nil)
		return
	}
	s.apply(seq, &p)
}

// Resolve fetches the profile once without subscribing, for short-lived
// clients that never call Start.
func (s *Session) Resolve(ctx context.Context) (*models.Profile, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	p, err := s.profiles.Me(ctx)
	if err != nil {
		return nil, err
	}
	s.apply(seq, &p)
	return s.User(), nil
}

// SetProfile adopts a profile returned by an update call.
func (s *Session) SetProfile(p models.Profile) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()
	s.apply(seq, &p)
}

func (s *Session) apply(seq uint64, p *models.Profile) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.user = p
	s.mu.Unlock()

	if p != nil {
		s.tracker.Seed(p.Plano, p.Limites)
	} else {
		s.tracker.Seed(models.PlanFree, models.Limits{})
	}
	s.publish(p)
}

func (s *Session) publish(p *models.Profile) {
	s.mu.Lock()
	fns := make([]func(*models.Profile), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(clone(p))
	}
}

// User returns a copy of the signed-in profile, or nil.
func (s *Session) User() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.user)
}

// UserID is empty when nobody is signed in.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// Watch registers fn for user changes and returns its cancel func.
func (s *Session) Watch(fn func(*models.Profile)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func clone(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
