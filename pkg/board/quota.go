package board

import (
	"sync"

	"desabafa/pkg/models"
)

// CanSubmit is the pure quota predicate: counter < ceiling(plan, kind).
func CanSubmit(plan models.Plan, kind models.QuotaKind, counter int) bool {
	return models.Allows(plan.Ceiling(kind), counter)
}

// Tracker holds today's usage for the signed-in user. Counters only move up
// locally; Seed replaces them with the service's numbers on every session
// resolution.
type Tracker struct {
	mu       sync.Mutex
	plan     models.Plan
	counters map[models.QuotaKind]int
}

func NewTracker(plan models.Plan) *Tracker {
	return &Tracker{plan: plan, counters: map[models.QuotaKind]int{}}
}

// Seed adopts the plan and counters reported by the service.
func (t *Tracker) Seed(plan models.Plan, l models.Limits) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plan = plan
	t.counters = map[models.QuotaKind]int{
		models.QuotaPost:    l.PostsHoje,
		models.QuotaComment: l.ComentariosHoje,
	}
}

func (t *Tracker) Plan() models.Plan {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plan
}

func (t *Tracker) CanSubmit(kind models.QuotaKind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return CanSubmit(t.plan, kind, t.counters[kind])
}

// Increment records one confirmed submission. It fails without touching the
// counter when the ceiling is already reached.
func (t *Tracker) Increment(kind models.QuotaKind) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !CanSubmit(t.plan, kind, t.counters[kind]) {
		return ErrQuotaExceeded
	}
	t.counters[kind]++
	return nil
}

func (t *Tracker) Used(kind models.QuotaKind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters[kind]
}

// Remaining returns models.Unlimited for plans without a ceiling.
func (t *Tracker) Remaining(kind models.QuotaKind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	ceiling := t.plan.Ceiling(kind)
	if ceiling == models.Unlimited {
		return models.Unlimited
	}
	if left := ceiling - t.counters[kind]; left > 0 {
		return left
	}
	return 0
}

// Limits renders the tracker in the wire shape.
func (t *Tracker) Limits() models.Limits {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.LimitsFor(t.plan, t.counters[models.QuotaPost], t.counters[models.QuotaComment])
}
