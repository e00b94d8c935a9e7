package board

import (
	"context"
	"testing"

	"desabafa/pkg/apperr"
	"desabafa/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postTarget(author *string) Target {
	return Target{Kind: TargetPost, ID: "abc", AuthorID: author}
}

func TestToggleConfirmed(t *testing.T) {
	backend := newFakeBackend()
	backend.toggleLiked = true
	r := NewReaction(postTarget(strptr("autor")), ReactionState{Liked: false, Count: 10})

	st, err := r.Toggle(context.Background(), "viewer", backend)
	require.NoError(t, err)
	assert.Equal(t, ReactionState{Liked: true, Count: 11}, st)

	_, phase := r.State()
	assert.Equal(t, Idle, phase)
}

func TestToggleFailureRevertsOnce(t *testing.T) {
	backend := newFakeBackend()
	backend.toggleErr = apperr.Unavailable("sem rede")
	r := NewReaction(postTarget(nil), ReactionState{Liked: false, Count: 10})

	for i := 0; i < 3; i++ {
		st, err := r.Toggle(context.Background(), "viewer", backend)
		require.Error(t, err)
		assert.Equal(t, ReactionState{Liked: false, Count: 10}, st)
	}
	st, phase := r.State()
	assert.Equal(t, ReactionState{Liked: false, Count: 10}, st)
	assert.Equal(t, Idle, phase)

	// A stray rollback after the cycle finished changes nothing.
	assert.Equal(t, st, r.rollback())
}

func TestToggleUnlikeFailureRestoresLiked(t *testing.T) {
	backend := newFakeBackend()
	backend.toggleErr = assert.AnError
	r := NewReaction(postTarget(nil), ReactionState{Liked: true, Count: 1})

	_, err := r.Toggle(context.Background(), "viewer", backend)
	require.Error(t, err)

	st, _ := r.State()
	assert.Equal(t, ReactionState{Liked: true, Count: 1}, st)
}

func TestToggleTrustsServiceBoolean(t *testing.T) {
	backend := newFakeBackend()
	backend.toggleLiked = false
	backend.toggleTotal = 10
	r := NewReaction(postTarget(nil), ReactionState{Liked: false, Count: 10})

	st, err := r.Toggle(context.Background(), "viewer", backend)
	require.NoError(t, err)
	assert.Equal(t, ReactionState{Liked: false, Count: 10}, st)
}

func TestToggleAdoptsServiceTotal(t *testing.T) {
	backend := newFakeBackend()
	backend.toggleLiked = true
	backend.toggleTotal = 15
	r := NewReaction(postTarget(nil), ReactionState{Liked: false, Count: 10})

	st, err := r.Toggle(context.Background(), "viewer", backend)
	require.NoError(t, err)
	assert.Equal(t, ReactionState{Liked: true, Count: 15}, st)

	backend.toggleLiked = false
	backend.toggleTotal = 0
	st, err = r.Toggle(context.Background(), "viewer", backend)
	require.NoError(t, err)
	assert.Equal(t, ReactionState{Liked: false, Count: 0}, st)
}

func TestToggleWithoutTotalDerivesCount(t *testing.T) {
	backend := newFakeBackend()
	backend.toggleLiked = true
	r := NewReaction(postTarget(nil), ReactionState{Liked: false, Count: 10})

	st, err := r.Toggle(context.Background(), "viewer", backend)
	require.NoError(t, err)
	assert.Equal(t, ReactionState{Liked: true, Count: 11}, st)
}

func TestSelfReactionRejectedWithoutCall(t *testing.T) {
	backend := newFakeBackend()
	r := NewReaction(postTarget(strptr("u1")), ReactionState{Liked: false, Count: 4})

	st, err := r.Toggle(context.Background(), "u1", backend)

	assert.ErrorIs(t, err, ErrSelfReaction)
	assert.False(t, apperr.Retryable(err))
	assert.Equal(t, ReactionState{Liked: false, Count: 4}, st)
	toggles, _ := backend.calls()
	assert.Zero(t, toggles)
}

func TestUnauthenticatedToggle(t *testing.T) {
	backend := newFakeBackend()
	r := NewReaction(postTarget(nil), ReactionState{Count: 2})

	_, err := r.Toggle(context.Background(), "", backend)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	toggles, _ := backend.calls()
	assert.Zero(t, toggles)
}

func TestToggleWhilePendingIsDropped(t *testing.T) {
	backend := newFakeBackend()
	backend.toggleLiked = true
	backend.toggleGate = make(chan struct{})
	backend.toggleEntered = make(chan struct{})
	r := NewReaction(postTarget(nil), ReactionState{Liked: false, Count: 0})

	done := make(chan ReactionState)
	go func() {
		st, _ := r.Toggle(context.Background(), "viewer", backend)
		done <- st
	}()
	<-backend.toggleEntered

	st, phase := r.State()
	assert.Equal(t, Pending, phase)
	assert.Equal(t, ReactionState{Liked: true, Count: 1}, st)

	_, err := r.Toggle(context.Background(), "viewer", backend)
	assert.ErrorIs(t, err, ErrTogglePending)

	close(backend.toggleGate)
	assert.Equal(t, ReactionState{Liked: true, Count: 1}, <-done)
	toggles, _ := backend.calls()
	assert.Equal(t, 1, toggles)
}

func TestServiceSelfReactionRollsBack(t *testing.T) {
	backend := newFakeBackend()
	backend.toggleErr = apperr.SelfReaction()
	// Anonymous item: the client cannot see the author.
	r := NewReaction(postTarget(nil), ReactionState{Count: 3})

	st, err := r.Toggle(context.Background(), "viewer", backend)
	assert.ErrorIs(t, err, ErrSelfReaction)
	assert.Equal(t, ReactionState{Count: 3}, st)
}

func TestReactionsShareMachinePerItem(t *testing.T) {
	rs := NewReactions()
	post := models.Post{ID: "p1", TotalReacoes: 5}

	a := rs.For(PostTarget(post), ReactionState{Count: 5})
	b := rs.For(PostTarget(post), ReactionState{Count: 6})
	assert.Same(t, a, b)

	st, _ := b.State()
	assert.Equal(t, 6, st.Count)

	c := rs.For(CommentTarget(models.Comment{ID: "p1"}), ReactionState{})
	assert.NotSame(t, a, c)
}

func TestBoardToggleUsesSessionViewer(t *testing.T) {
	backend := newFakeBackend()
	backend.profile = freeProfile("u1", 0, 0)
	backend.toggleLiked = true
	b := New(backend, &fakeEvents{})

	_, err := b.ToggleReaction(context.Background(), Target{Kind: TargetPost, ID: "anon"}, ReactionState{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = b.Session().Resolve(context.Background())
	require.NoError(t, err)

	_, err = b.ToggleReaction(context.Background(), postTarget(strptr("u1")), ReactionState{})
	assert.ErrorIs(t, err, ErrSelfReaction)

	st, err := b.ToggleReaction(context.Background(), Target{Kind: TargetPost, ID: "outro"}, ReactionState{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, ReactionState{Liked: true, Count: 2}, st)
}
