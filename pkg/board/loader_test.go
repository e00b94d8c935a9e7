package board

import (
	"context"
	"sync"
	"testing"

	"desabafa/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPaging(t *testing.T, st LoaderState) {
	t.Helper()
	assert.LessOrEqual(t, st.Loaded(), st.Total)
	assert.Equal(t, st.Loaded() < st.Total, st.HasMore)
}

func TestLoaderPagesUntilTotal(t *testing.T) {
	backend := newFakeBackend()
	backend.comments["abc"] = comments("abc", 25)
	l := NewLoader(backend, 10, models.OrderAsc)
	ctx := context.Background()

	require.NoError(t, l.SetPost(ctx, "abc"))
	st := l.State()
	assert.Equal(t, 10, st.Loaded())
	assert.True(t, st.HasMore)
	assertPaging(t, st)

	require.NoError(t, l.LoadMore(ctx))
	require.NoError(t, l.LoadMore(ctx))
	st = l.State()
	assert.Equal(t, 25, st.Loaded())
	assert.False(t, st.HasMore)
	assertPaging(t, st)

	// Nothing left: no further fetch.
	require.NoError(t, l.LoadMore(ctx))
	_, pages := backend.calls()
	assert.Len(t, pages, 3)
	assert.Equal(t, []int{0, 10, 20}, []int{pages[0].offset, pages[1].offset, pages[2].offset})
}

func TestLoaderEmptyPost(t *testing.T) {
	backend := newFakeBackend()
	l := NewLoader(backend, 0, "")

	require.NoError(t, l.SetPost(context.Background(), "vazio"))
	st := l.State()
	assert.Zero(t, st.Loaded())
	assert.False(t, st.HasMore)
	assert.Equal(t, models.OrderAsc, l.Order())
}

func TestLoaderStopsOnEmptyPageWithStaleTotal(t *testing.T) {
	backend := newFakeBackend()
	backend.comments["abc"] = comments("abc", 5)
	backend.pageTotal = 8
	l := NewLoader(backend, 10, models.OrderAsc)
	ctx := context.Background()

	require.NoError(t, l.SetPost(ctx, "abc"))
	assert.True(t, l.State().HasMore)

	require.NoError(t, l.LoadMore(ctx))
	st := l.State()
	assert.Equal(t, 5, st.Loaded())
	assert.Equal(t, 8, st.Total)
	assert.False(t, st.HasMore)

	require.NoError(t, l.LoadMore(ctx))
	_, pages := backend.calls()
	assert.Len(t, pages, 2)
}

func TestLoaderResetsBeforeFirstFetch(t *testing.T) {
	backend := newFakeBackend()
	backend.comments["a"] = comments("a", 15)
	backend.comments["b"] = comments("b", 3)
	l := NewLoader(backend, 10, models.OrderAsc)
	ctx := context.Background()
	require.NoError(t, l.SetPost(ctx, "a"))
	require.Equal(t, 10, l.State().Loaded())

	backend.pageGate = make(chan struct{})
	backend.pageEntered = make(chan string)
	done := make(chan error)
	go func() { done <- l.SetPost(ctx, "b") }()
	<-backend.pageEntered

	st := l.State()
	assert.Equal(t, "b", st.PostID)
	assert.Empty(t, st.Comments)
	assert.True(t, st.HasMore)
	assert.True(t, st.Loading)

	backend.pageGate <- struct{}{}
	require.NoError(t, <-done)
	st = l.State()
	assert.Equal(t, 3, st.Loaded())
	assert.Equal(t, "b-c0", st.Comments[0].ID)
}

func TestLoaderDropsStaleResponse(t *testing.T) {
	backend := newFakeBackend()
	backend.comments["a"] = comments("a", 5)
	backend.comments["b"] = comments("b", 2)
	backend.pageGate = make(chan struct{})
	backend.pageEntered = make(chan string)
	l := NewLoader(backend, 10, models.OrderDesc)
	ctx := context.Background()

	first := make(chan error)
	go func() { first <- l.SetPost(ctx, "a") }()
	<-backend.pageEntered

	second := make(chan error)
	go func() { second <- l.SetPost(ctx, "b") }()
	<-backend.pageEntered

	// Release both in either order; the answer for a is stale.
	backend.pageGate <- struct{}{}
	backend.pageGate <- struct{}{}
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	st := l.State()
	assert.Equal(t, "b", st.PostID)
	assert.Equal(t, 2, st.Total)
	for _, c := range st.Comments {
		assert.Equal(t, "b", c.PostID)
	}
}

func TestLoaderSingleFlight(t *testing.T) {
	backend := newFakeBackend()
	backend.comments["p"] = comments("p", 30)
	l := NewLoader(backend, 10, models.OrderAsc)
	ctx := context.Background()
	require.NoError(t, l.SetPost(ctx, "p"))

	backend.pageGate = make(chan struct{})
	backend.pageEntered = make(chan string, 8)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.LoadMore(ctx)
		}()
	}
	<-backend.pageEntered
	close(backend.pageGate)
	wg.Wait()

	_, pages := backend.calls()
	assert.LessOrEqual(t, len(pages), 3)
	assertPaging(t, l.State())
}

func TestLoaderErrorKeepsState(t *testing.T) {
	backend := newFakeBackend()
	backend.comments["p"] = comments("p", 12)
	l := NewLoader(backend, 10, models.OrderAsc)
	ctx := context.Background()
	require.NoError(t, l.SetPost(ctx, "p"))

	backend.pageErr = assert.AnError
	assert.Error(t, l.LoadMore(ctx))
	st := l.State()
	assert.Equal(t, 10, st.Loaded())
	assert.True(t, st.HasMore)
	assert.False(t, st.Loading)

	backend.pageErr = nil
	require.NoError(t, l.LoadMore(ctx))
	assert.Equal(t, 12, l.State().Loaded())
}

func TestAddLocalDescPrependsAndShiftsCursor(t *testing.T) {
	backend := newFakeBackend()
	backend.comments["p"] = comments("p", 15)
	l := NewLoader(backend, 10, models.OrderDesc)
	ctx := context.Background()
	require.NoError(t, l.SetPost(ctx, "p"))

	novo := models.Comment{ID: "novo", PostID: "p"}
	l.AddLocal(novo)
	// The fake keeps rows in slice order, so model the service putting the
	// newest row first.
	backend.comments["p"] = append([]models.Comment{novo}, backend.comments["p"]...)

	st := l.State()
	assert.Equal(t, "novo", st.Comments[0].ID)
	assert.Equal(t, 16, st.Total)

	require.NoError(t, l.LoadMore(ctx))
	st = l.State()
	assert.Equal(t, 16, st.Loaded())
	assert.False(t, st.HasMore)
	assertPaging(t, st)
}

func TestAddLocalAscAppendsAndDedupes(t *testing.T) {
	backend := newFakeBackend()
	backend.comments["p"] = comments("p", 12)
	l := NewLoader(backend, 10, models.OrderAsc)
	ctx := context.Background()
	require.NoError(t, l.SetPost(ctx, "p"))

	novo := models.Comment{ID: "novo", PostID: "p"}
	l.AddLocal(novo)
	backend.comments["p"] = append(backend.comments["p"], novo)

	st := l.State()
	assert.Equal(t, "novo", st.Comments[len(st.Comments)-1].ID)
	assert.Equal(t, 13, st.Total)

	require.NoError(t, l.LoadMore(ctx))
	st = l.State()
	assert.Equal(t, 13, st.Loaded())
	assertPaging(t, st)

	// A comment for another post is ignored.
	l.AddLocal(models.Comment{ID: "x", PostID: "outro"})
	assert.Equal(t, 13, l.State().Total)
}

func TestLoaderRemove(t *testing.T) {
	backend := newFakeBackend()
	backend.comments["p"] = comments("p", 3)
	l := NewLoader(backend, 10, models.OrderAsc)
	require.NoError(t, l.SetPost(context.Background(), "p"))

	l.Remove("p-c1")
	st := l.State()
	assert.Equal(t, 2, st.Loaded())
	assert.Equal(t, 2, st.Total)
	assertPaging(t, st)
}
