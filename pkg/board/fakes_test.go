package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"desabafa/pkg/apperr"
	"desabafa/pkg/models"
)

type fakeBackend struct {
	mu sync.Mutex

	profile    models.Profile
	profileErr error
	meCalls    int

	comments    map[string][]models.Comment
	pageGate    chan struct{}
	pageCalls   []pageCall
	pageErr     error
	pageTotal   int
	pageEntered chan string

	toggleLiked   bool
	toggleTotal   int
	toggleErr     error
	toggleCalls   int
	toggleGate    chan struct{}
	toggleEntered chan struct{}

	createdPosts    []models.NewPost
	createdComments []models.NewComment
	createErr       error
	nextID          int

	updates   []models.ProfileUpdate
	deletedID string
}

type pageCall struct {
	postID string
	offset int
	limit  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{comments: map[string][]models.Comment{}}
}

func (f *fakeBackend) Me(ctx context.Context) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	return f.profile, f.profileErr
}

func (f *fakeBackend) Comments(ctx context.Context, postID string, offset, limit int, order models.CommentOrder) (models.CommentPage, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, pageCall{postID, offset, limit})
	gate, entered := f.pageGate, f.pageEntered
	f.mu.Unlock()

	if entered != nil {
		entered <- postID
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageErr != nil {
		return models.CommentPage{}, f.pageErr
	}
	all := f.comments[postID]
	end := min(offset+limit, len(all))
	page := []models.Comment{}
	if offset < end {
		page = append(page, all[offset:end]...)
	}
	total := len(all)
	if f.pageTotal > 0 {
		total = f.pageTotal
	}
	return models.CommentPage{Comentarios: page, Total: total}, nil
}

func (f *fakeBackend) ToggleReaction(ctx context.Context, kind TargetKind, id string) (models.ReactionResult, error) {
	f.mu.Lock()
	f.toggleCalls++
	gate, entered := f.toggleGate, f.toggleEntered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return models.ReactionResult{}, f.toggleErr
	}
	return models.ReactionResult{Liked: f.toggleLiked, Total: f.toggleTotal}, nil
}

func (f *fakeBackend) CreatePost(ctx context.Context, p models.NewPost) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.Post{}, f.createErr
	}
	f.createdPosts = append(f.createdPosts, p)
	f.nextID++
	return models.Post{ID: fmt.Sprintf("p%d", f.nextID), Tipo: p.Tipo, Conteudo: p.Conteudo, Status: models.PostStatusActive}, nil
}

func (f *fakeBackend) CreateComment(ctx context.Context, postID string, c models.NewComment) (models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.Comment{}, f.createErr
	}
	f.createdComments = append(f.createdComments, c)
	f.nextID++
	created := models.Comment{
		ID:        fmt.Sprintf("c-new-%d", f.nextID),
		PostID:    postID,
		AutorID:   &f.profile.ID,
		ParentID:  c.ParentID,
		Conteudo:  c.Conteudo,
		CreatedAt: time.Now(),
	}
	f.comments[postID] = append(f.comments[postID], created)
	return created, nil
}

func (f *fakeBackend) DeleteComment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedID = id
	return nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)
	if upd.Apelido != nil {
		if *upd.Apelido == "ocupado" {
			return models.Profile{}, apperr.HandleTaken()
		}
		f.profile.Apelido = *upd.Apelido
	}
	return f.profile, nil
}

func (f *fakeBackend) calls() (toggles int, pages []pageCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggleCalls, append([]pageCall(nil), f.pageCalls...)
}

// fakeEvents hands out the subscriber so tests can emit events directly.
type fakeEvents struct {
	mu      sync.Mutex
	fn      func(models.SessionEvent)
	subs    int
	stopped int
	err     error
}

func (e *fakeEvents) Subscribe(ctx context.Context, fn func(models.SessionEvent)) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.subs++
	e.fn = fn
	return func() {
		e.mu.Lock()
		e.stopped++
		e.fn = nil
		e.mu.Unlock()
	}, nil
}

func (e *fakeEvents) emit(ev models.SessionEvent) {
	e.mu.Lock()
	fn := e.fn
	e.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func comments(postID string, n int) []models.Comment {
	out := make([]models.Comment, n)
	for i := range out {
		out[i] = models.Comment{ID: fmt.Sprintf("%s-c%d", postID, i), PostID: postID, Conteudo: "comentário"}
	}
	return out
}

func strptr(s string) *string { return &s }

func freeProfile(id string, posts, comments int) models.Profile {
	return models.Profile{
		ID:      id,
		Apelido: models.DefaultHandle(id),
		Plano:   models.PlanFree,
		Limites: models.LimitsFor(models.PlanFree, posts, comments),
	}
}
