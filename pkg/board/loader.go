package board

import (
	"context"
	"sync"

	"desabafa/pkg/models"
)

const DefaultPageSize = 10

// CommentSource fetches one page of a post's comments along with the total
// number of visible comments.
type CommentSource interface {
	Comments(ctx context.Context, postID string, offset, limit int, order models.CommentOrder) (models.CommentPage, error)
}

// LoaderState is a copy of the loader's view, safe to hand to renderers.
type LoaderState struct {
	PostID   string
	Comments []models.Comment
	Total    int
	HasMore  bool
	Loading  bool
}

// Loaded is the number of comments held, which never exceeds Total.
func (s LoaderState) Loaded() int { return len(s.Comments) }

// Loader pages comments for one post at a time. Every SetPost bumps a
// generation number; a response from an older generation is dropped.
type Loader struct {
	src      CommentSource
	pageSize int
	order    models.CommentOrder

	mu      sync.Mutex
	gen     uint64
	postID  string
	items   []models.Comment
	seen    map[string]struct{}
	cursor  int
	total   int
	hasMore bool
	loading bool
}

func NewLoader(src CommentSource, pageSize int, order models.CommentOrder) *Loader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if order != models.OrderDesc {
		order = models.OrderAsc
	}
	return &Loader{src: src, pageSize: pageSize, order: order, seen: map[string]struct{}{}}
}

func (l *Loader) Order() models.CommentOrder { return l.order }

// SetPost switches to postID, clearing everything before the first page is
// requested, and then loads that page.
func (l *Loader) SetPost(ctx context.Context, postID string) error {
	l.mu.Lock()
	l.gen++
	l.postID = postID
	l.items = nil
	l.seen = map[string]struct{}{}
	l.cursor = 0
	l.total = 0
	l.hasMore = true
	l.loading = false
	l.mu.Unlock()

	return l.LoadMore(ctx)
}

// LoadMore fetches the next page. It does nothing while a fetch is in flight,
// when no post is selected, or when everything is loaded.
func (l *Loader) LoadMore(ctx context.Context) error {
	l.mu.Lock()
	if l.loading || !l.hasMore || l.postID == "" {
		l.mu.Unlock()
		return nil
	}
	l.loading = true
	gen, postID, offset := l.gen, l.postID, l.cursor
	l.mu.Unlock()

	page, err := l.src.Comments(ctx, postID, offset, l.pageSize, l.order)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return nil
	}
	l.loading = false
	if err != nil {
		return err
	}

	l.cursor += len(page.Comentarios)
	for _, c := range page.Comentarios {
		if _, dup := l.seen[c.ID]; dup {
			continue
		}
		l.seen[c.ID] = struct{}{}
		l.items = append(l.items, c)
	}
	l.total = max(page.Total, len(l.items))
	l.hasMore = len(l.items) < l.total && len(page.Comentarios) > 0
	return nil
}

// AddLocal inserts a comment the viewer just submitted without reloading.
// Newest-first lists get it at the top, oldest-first at the bottom.
func (l *Loader) AddLocal(c models.Comment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.PostID != l.postID {
		return
	}
	if _, dup := l.seen[c.ID]; dup {
		return
	}
	l.seen[c.ID] = struct{}{}
	l.total++
	if l.order == models.OrderDesc {
		l.items = append([]models.Comment{c}, l.items...)
		// The service now has one more row ahead of our cursor.
		l.cursor++
		return
	}
	l.items = append(l.items, c)
}

// Remove drops a comment the viewer deleted. Its id stays in the seen set
// so a later page cannot bring it back.
func (l *Loader) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.items {
		if c.ID != id {
			continue
		}
		l.items = append(l.items[:i], l.items[i+1:]...)
		l.total = max(l.total-1, len(l.items))
		l.cursor = max(l.cursor-1, 0)
		return
	}
}

func (l *Loader) State() LoaderState {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Comment, len(l.items))
	copy(out, l.items)
	return LoaderState{
		PostID:   l.postID,
		Comments: out,
		Total:    l.total,
		HasMore:  l.hasMore,
		Loading:  l.loading,
	}
}
