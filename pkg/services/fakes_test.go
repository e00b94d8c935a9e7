package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"desabafa/pkg/models"
	"desabafa/pkg/repository"
)

type fakeCounters struct {
	mu      sync.Mutex
	counts  map[string]int64
	failErr error
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{counts: map[string]int64{}}
}

func (f *fakeCounters) key(kind, userID string) string { return kind + ":" + userID }

func (f *fakeCounters) IncrDaily(_ context.Context, kind, userID string, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return 0, f.failErr
	}
	f.counts[f.key(kind, userID)]++
	return f.counts[f.key(kind, userID)], nil
}

func (f *fakeCounters) DecrDaily(_ context.Context, kind, userID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[f.key(kind, userID)] > 0 {
		f.counts[f.key(kind, userID)]--
	}
	return nil
}

func (f *fakeCounters) GetDaily(_ context.Context, kind, userID string, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[f.key(kind, userID)], nil
}

func (f *fakeCounters) get(kind models.QuotaKind, userID string) int64 {
	n, _ := f.GetDaily(context.Background(), string(kind), userID, time.Time{})
	return n
}

type fakeCache struct {
	mu      sync.Mutex
	items   map[string]any
	deleted []string
}

func newFakeCache() *fakeCache { return &fakeCache{items: map[string]any{}} }

func (c *fakeCache) Get(_ context.Context, key string, dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return false
	}
	switch d := dest.(type) {
	case *[]models.Post:
		*d = v.([]models.Post)
	case *models.Post:
		*d = v.(models.Post)
	default:
		return false
	}
	return true
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
}

func (c *fakeCache) DelPattern(_ context.Context, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
}

type emitted struct {
	action string
	userID string
	data   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []emitted
}

func (p *fakePublisher) Emit(_ context.Context, action, userID string, data any) error {
	p.mu.Lock()
	p.events = append(p.events, emitted{action, userID, data})
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) sessionEvents() []models.SessionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.SessionEvent
	for _, e := range p.events {
		if ev, ok := e.data.(models.SessionEvent); ok {
			out = append(out, ev)
		}
	}
	return out
}

type fakeProfiles struct {
	mu       sync.Mutex
	byID     map[string]models.Profile
	takenFor map[string]bool
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: map[string]models.Profile{}, takenFor: map[string]bool{}}
}

func (f *fakeProfiles) Get(_ context.Context, id string) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return models.Profile{}, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeProfiles) GetByHandle(_ context.Context, apelido string) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if strings.EqualFold(p.Apelido, apelido) {
			return p, nil
		}
	}
	return models.Profile{}, sql.ErrNoRows
}

func (f *fakeProfiles) handleTaken(id, handle string) bool {
	if f.takenFor[strings.ToLower(handle)] {
		return true
	}
	for other, p := range f.byID {
		if other != id && strings.EqualFold(p.Apelido, handle) {
			return true
		}
	}
	return false
}

func (f *fakeProfiles) Create(_ context.Context, p models.Profile) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byID[p.ID]; ok {
		return existing, nil
	}
	if f.handleTaken(p.ID, p.Apelido) {
		return models.Profile{}, repository.ErrHandleTaken
	}
	p.CreatedAt = time.Now()
	p.ProximaTrocaApelido = p.CreatedAt
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeProfiles) Update(_ context.Context, p models.Profile) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handleTaken(p.ID, p.Apelido) {
		return models.Profile{}, repository.ErrHandleTaken
	}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeProfiles) SetPlan(_ context.Context, id string, plan models.Plan) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return models.Profile{}, sql.ErrNoRows
	}
	p.Plano = plan
	f.byID[id] = p
	return p, nil
}

type fakePosts struct {
	mu       sync.Mutex
	posts    map[string]models.Post
	seq      int
	feeds    int
	createFn func() error
}

func newFakePosts() *fakePosts { return &fakePosts{posts: map[string]models.Post{}} }

func (f *fakePosts) add(p models.Post) models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		f.seq++
		p.ID = fmt.Sprintf("post-%d", f.seq)
	}
	if p.Status == "" {
		p.Status = models.PostStatusActive
	}
	f.posts[p.ID] = p
	return p
}

func (f *fakePosts) Feed(_ context.Context, filter models.FeedFilter, _ string) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds++
	out := []models.Post{}
	for _, p := range f.posts {
		if p.Status == models.PostStatusActive && (filter.Tipo == "" || p.Tipo == filter.Tipo) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePosts) Get(_ context.Context, id, _ string) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok || p.Status != models.PostStatusActive {
		return models.Post{}, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakePosts) Create(_ context.Context, autorID *string, tipo models.Category, conteudo string, anonimo bool) (models.Post, error) {
	if f.createFn != nil {
		if err := f.createFn(); err != nil {
			return models.Post{}, err
		}
	}
	return f.add(models.Post{AutorID: autorID, Tipo: tipo, Conteudo: conteudo, Anonimo: anonimo}), nil
}

func (f *fakePosts) Remove(_ context.Context, id, autorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok || p.Status != models.PostStatusActive {
		return sql.ErrNoRows
	}
	if p.AutorID == nil || *p.AutorID != autorID {
		return repository.ErrNotOwner
	}
	p.Status = models.PostStatusRemoved
	f.posts[id] = p
	return nil
}

func (f *fakePosts) AuthorOf(ctx context.Context, id string) (*string, error) {
	p, err := f.Get(ctx, id, "")
	if err != nil {
		return nil, err
	}
	return p.AutorID, nil
}

func (f *fakePosts) RefreshTrending(context.Context, time.Duration, int) (int64, error) {
	return 0, nil
}

type fakeComments struct {
	mu       sync.Mutex
	comments map[string]models.Comment
	order    []string
	seq      int
}

func newFakeComments() *fakeComments { return &fakeComments{comments: map[string]models.Comment{}} }

func (f *fakeComments) add(c models.Comment) models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		f.seq++
		c.ID = fmt.Sprintf("c-%d", f.seq)
	}
	f.comments[c.ID] = c
	f.order = append(f.order, c.ID)
	return c
}

func (f *fakeComments) Page(_ context.Context, postID, _ string, offset, limit int, _ models.CommentOrder) ([]models.Comment, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Comment
	for _, id := range f.order {
		c := f.comments[id]
		if c.PostID == postID && !c.Deleted {
			all = append(all, c)
		}
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return append([]models.Comment{}, all[offset:end]...), total, nil
}

func (f *fakeComments) Get(_ context.Context, id, _ string) (models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok || c.Deleted {
		return models.Comment{}, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeComments) Create(_ context.Context, postID string, autorID, parentID *string, conteudo string) (models.Comment, error) {
	return f.add(models.Comment{PostID: postID, AutorID: autorID, ParentID: parentID, Conteudo: conteudo}), nil
}

func (f *fakeComments) SoftDelete(_ context.Context, id, autorID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok || c.Deleted {
		return "", sql.ErrNoRows
	}
	if c.AutorID == nil || *c.AutorID != autorID {
		return "", repository.ErrNotOwner
	}
	c.Deleted = true
	f.comments[id] = c
	return c.PostID, nil
}

func (f *fakeComments) AuthorOf(ctx context.Context, id string) (*string, error) {
	c, err := f.Get(ctx, id, "")
	if err != nil {
		return nil, err
	}
	return c.AutorID, nil
}

type fakeReactions struct {
	mu    sync.Mutex
	liked map[string]bool
	total map[string]int
}

func newFakeReactions() *fakeReactions {
	return &fakeReactions{liked: map[string]bool{}, total: map[string]int{}}
}

func (f *fakeReactions) toggle(userID, target string) (models.ReactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := userID + "|" + target
	f.liked[k] = !f.liked[k]
	if f.liked[k] {
		f.total[target]++
	} else {
		f.total[target]--
	}
	return models.ReactionResult{Liked: f.liked[k], Total: f.total[target]}, nil
}

func (f *fakeReactions) TogglePost(_ context.Context, userID, postID string) (models.ReactionResult, error) {
	return f.toggle(userID, "p:"+postID)
}

func (f *fakeReactions) ToggleComment(_ context.Context, userID, commentID string) (models.ReactionResult, error) {
	return f.toggle(userID, "c:"+commentID)
}

type fakeNotes struct {
	mu   sync.Mutex
	sent []models.Notification
	read map[int64]bool
}

func (f *fakeNotes) Notify(_ context.Context, n models.Notification) {
	f.mu.Lock()
	f.sent = append(f.sent, n)
	f.mu.Unlock()
}

func (f *fakeNotes) List(context.Context, string, bool) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification{}, f.sent...), nil
}

func (f *fakeNotes) MarkRead(context.Context, string, int64) error { return nil }

func (f *fakeNotes) MarkAllRead(context.Context, string) (int64, error) { return 0, nil }

func (f *fakeNotes) all() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification{}, f.sent...)
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

// world wires every service over in-memory fakes.
type world struct {
	counters  *fakeCounters
	cache     *fakeCache
	events    *fakePublisher
	profRepo  *fakeProfiles
	postRepo  *fakePosts
	commRepo  *fakeComments
	reactRepo *fakeReactions
	notes     *fakeNotes

	quota     QuotaService
	profiles  ProfileService
	social    SocialService
	comments  CommentService
	reactions ReactionService
}

func newWorld() *world {
	w := &world{
		counters:  newFakeCounters(),
		cache:     newFakeCache(),
		events:    &fakePublisher{},
		profRepo:  newFakeProfiles(),
		postRepo:  newFakePosts(),
		commRepo:  newFakeComments(),
		reactRepo: newFakeReactions(),
		notes:     &fakeNotes{},
	}
	w.quota = NewQuotaService(w.counters)
	w.profiles = NewProfileService(w.profRepo, w.quota, w.cache, w.events)
	w.social = NewSocialService(w.postRepo, w.profiles, w.quota, w.cache)
	w.comments = NewCommentService(w.commRepo, w.postRepo, w.profiles, w.quota, w.notes, w.cache)
	w.reactions = NewReactionService(w.reactRepo, w.postRepo, w.commRepo, w.notes, w.cache)
	return w
}
