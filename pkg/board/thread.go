package board

import (
	"sync"

	"desabafa/pkg/models"
)

// ReplyDisplayLimit is how many replies a collapsed thread shows.
const ReplyDisplayLimit = 2

const rootKey = ""

// GroupByParent indexes a flat comment list by parent id. Root comments sit
// under the empty key. Input order is kept inside each group.
func GroupByParent(comments []models.Comment) map[string][]models.Comment {
	groups := make(map[string][]models.Comment)
	for _, c := range comments {
		key := rootKey
		if c.ParentID != nil {
			key = *c.ParentID
		}
		groups[key] = append(groups[key], c)
	}
	return groups
}

type Thread struct {
	Root     models.Comment
	Replies  []models.Comment // visible replies
	Hidden   int              // replies behind "ver mais"
	Expanded bool
}

// CanReply is false for replies; nesting is one level deep.
func CanReply(c models.Comment) bool {
	return c.IsRoot()
}

// Threads tracks which root comments the viewer expanded. The comment list
// itself is owned by the Loader; Build recomputes the grouping from it.
type Threads struct {
	mu       sync.Mutex
	limit    int
	expanded map[string]bool
}

func NewThreads() *Threads {
	return &Threads{limit: ReplyDisplayLimit, expanded: map[string]bool{}}
}

func (t *Threads) Expand(rootID string) {
	t.mu.Lock()
	t.expanded[rootID] = true
	t.mu.Unlock()
}

func (t *Threads) Collapse(rootID string) {
	t.mu.Lock()
	delete(t.expanded, rootID)
	t.mu.Unlock()
}

func (t *Threads) Expanded(rootID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expanded[rootID]
}

// Reset forgets every expansion, used when the loader switches posts.
func (t *Threads) Reset() {
	t.mu.Lock()
	t.expanded = map[string]bool{}
	t.mu.Unlock()
}

// Build groups comments into display threads. Replies whose root is not in
// the list are left out until that root is loaded.
func (t *Threads) Build(comments []models.Comment) []Thread {
	groups := GroupByParent(comments)

	t.mu.Lock()
	defer t.mu.Unlock()

	roots := groups[rootKey]
	out := make([]Thread, 0, len(roots))
	for _, root := range roots {
		replies := groups[root.ID]
		th := Thread{Root: root, Expanded: t.expanded[root.ID]}
		if th.Expanded || len(replies) <= t.limit {
			th.Replies = replies
		} else {
			th.Replies = replies[:t.limit]
			th.Hidden = len(replies) - t.limit
		}
		out = append(out, th)
	}
	return out
}
