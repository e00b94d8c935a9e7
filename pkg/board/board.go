// Package board is the client core of the confession board: quota checks,
// optimistic reactions, comment paging, reply threads and the session that
// ties them to the signed-in user.
package board

import (
	"context"

	"desabafa/pkg/apperr"
	"desabafa/pkg/logger"
	"desabafa/pkg/models"

	"go.uber.org/zap"
)

// Backend is the data service as the board sees it.
type Backend interface {
	CommentSource
	Toggler
	ProfileSource
	CreatePost(ctx context.Context, p models.NewPost) (models.Post, error)
	CreateComment(ctx context.Context, postID string, c models.NewComment) (models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Profile, error)
}

type Board struct {
	backend   Backend
	session   *Session
	reactions *Reactions
	log       *zap.Logger
}

func New(backend Backend, events EventSource) *Board {
	return &Board{
		backend:   backend,
		session:   NewSession(events, backend, NewTracker(models.PlanFree)),
		reactions: NewReactions(),
		log:       logger.Named("board"),
	}
}

func (b *Board) Session() *Session { return b.session }

func (b *Board) Start(ctx context.Context) error { return b.session.Start(ctx) }

func (b *Board) Stop() { b.session.Stop() }

// SubmitPost checks sign-in, content and quota before calling the service,
// and counts the post only after the service accepted it.
func (b *Board) SubmitPost(ctx context.Context, p models.NewPost) (models.Post, error) {
	if b.session.UserID() == "" {
		return models.Post{}, ErrUnauthenticated
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return models.Post{}, err
	}
	tracker := b.session.Tracker()
	if !tracker.CanSubmit(models.QuotaPost) {
		return models.Post{}, ErrQuotaExceeded
	}

	post, err := b.backend.CreatePost(ctx, p)
	if err != nil {
		return models.Post{}, err
	}
	b.count(models.QuotaPost)
	return post, nil
}

// SubmitComment posts a comment or reply into view. A reply lands in its
// parent's thread, which is expanded so the reply shows.
func (b *Board) SubmitComment(ctx context.Context, view *CommentView, c models.NewComment) (models.Comment, error) {
	if b.session.UserID() == "" {
		return models.Comment{}, ErrUnauthenticated
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return models.Comment{}, err
	}
	if c.ParentID != nil {
		if parent, ok := view.find(*c.ParentID); ok && !CanReply(parent) {
			return models.Comment{}, ErrReplyToReply
		}
	}
	if !b.session.Tracker().CanSubmit(models.QuotaComment) {
		return models.Comment{}, ErrQuotaExceeded
	}

	postID := view.State().PostID
	created, err := b.backend.CreateComment(ctx, postID, c)
	if err != nil {
		return models.Comment{}, err
	}
	b.count(models.QuotaComment)

	view.AddLocal(created)
	if created.ParentID != nil {
		view.threads.Expand(*created.ParentID)
	}
	return created, nil
}

func (b *Board) DeleteComment(ctx context.Context, view *CommentView, id string) error {
	if b.session.UserID() == "" {
		return ErrUnauthenticated
	}
	if err := b.backend.DeleteComment(ctx, id); err != nil {
		return err
	}
	view.Remove(id)
	return nil
}

// ToggleReaction flips the viewer's like on target, starting from initial
// the first time the item is seen.
func (b *Board) ToggleReaction(ctx context.Context, target Target, initial ReactionState) (ReactionState, error) {
	r := b.reactions.For(target, initial)
	return r.Toggle(ctx, b.session.UserID(), b.backend)
}

// UpdateProfile rejects bad handles locally and adopts the stored profile.
func (b *Board) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Profile, error) {
	if b.session.UserID() == "" {
		return models.Profile{}, ErrUnauthenticated
	}
	if upd.Apelido != nil {
		if ok, reason := models.ValidHandle(*upd.Apelido); !ok {
			return models.Profile{}, apperr.Validation("apelido", reason)
		}
	}
	p, err := b.backend.UpdateProfile(ctx, upd)
	if err != nil {
		return models.Profile{}, err
	}
	b.session.SetProfile(p)
	return p, nil
}

// NewCommentView builds a loader plus thread state for one post view.
func (b *Board) NewCommentView(pageSize int, order models.CommentOrder) *CommentView {
	return &CommentView{Loader: NewLoader(b.backend, pageSize, order), threads: NewThreads()}
}

func (b *Board) count(kind models.QuotaKind) {
	// The service already accepted the write, so a local overflow only means
	// the tracker was stale.
	if err := b.session.Tracker().Increment(kind); err != nil {
		b.log.Debug("contador local acima do limite", zap.String("kind", string(kind)))
	}
}

// CommentView is the comment section of one post.
type CommentView struct {
	*Loader
	threads *Threads
}

// Open switches the view to postID, dropping expansions from the old post.
func (v *CommentView) Open(ctx context.Context, postID string) error {
	v.threads.Reset()
	return v.SetPost(ctx, postID)
}

func (v *CommentView) Threads() []Thread {
	return v.threads.Build(v.State().Comments)
}

func (v *CommentView) Expand(rootID string) { v.threads.Expand(rootID) }

func (v *CommentView) Collapse(rootID string) { v.threads.Collapse(rootID) }

func (v *CommentView) find(id string) (models.Comment, bool) {
	for _, c := range v.State().Comments {
		if c.ID == id {
			return c, true
		}
	}
	return models.Comment{}, false
}
