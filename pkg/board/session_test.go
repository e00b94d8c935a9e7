package board

import (
	"context"
	"sync"
	"testing"

	"desabafa/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	seen []*models.Profile
}

func (r *recorder) record(p *models.Profile) {
	r.mu.Lock()
	r.seen = append(r.seen, p)
	r.mu.Unlock()
}

func (r *recorder) last() *models.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return nil
	}
	return r.seen[len(r.seen)-1]
}

func TestSessionStartOnce(t *testing.T) {
	events := &fakeEvents{}
	s := NewSession(events, newFakeBackend(), nil)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSessionStarted)
	assert.Equal(t, 1, events.subs)

	s.Stop()
	assert.Equal(t, 1, events.stopped)
	assert.ErrorIs(t, s.Start(context.Background()), ErrSessionStarted)
}

func TestSessionSubscribeFailure(t *testing.T) {
	events := &fakeEvents{err: assert.AnError}
	s := NewSession(events, newFakeBackend(), nil)
	assert.ErrorIs(t, s.Start(context.Background()), assert.AnError)
}

func TestSessionResolvesOnSignIn(t *testing.T) {
	backend := newFakeBackend()
	backend.profile = freeProfile("u1", 1, 2)
	events := &fakeEvents{}
	s := NewSession(events, backend, nil)
	rec := &recorder{}
	cancel := s.Watch(rec.record)
	defer cancel()

	require.NoError(t, s.Start(context.Background()))
	events.emit(models.SessionEvent{Event: models.EventSignedIn, UserID: "u1"})

	require.NotNil(t, s.User())
	assert.Equal(t, "u1", s.UserID())
	assert.Equal(t, "u1", rec.last().ID)
	assert.False(t, s.Tracker().CanSubmit(models.QuotaPost))
	assert.Equal(t, 2, s.Tracker().Used(models.QuotaComment))

	events.emit(models.SessionEvent{Event: models.EventSignedOut})
	assert.Nil(t, s.User())
	assert.Nil(t, rec.last())
	assert.Zero(t, s.Tracker().Used(models.QuotaComment))
}

func TestSessionProfileFailureClearsUser(t *testing.T) {
	backend := newFakeBackend()
	backend.profile = freeProfile("u1", 0, 0)
	events := &fakeEvents{}
	s := NewSession(events, backend, nil)
	require.NoError(t, s.Start(context.Background()))

	events.emit(models.SessionEvent{Event: models.EventInitialSession, UserID: "u1"})
	require.NotNil(t, s.User())

	backend.mu.Lock()
	backend.profileErr = assert.AnError
	backend.mu.Unlock()
	events.emit(models.SessionEvent{Event: models.EventUserUpdated, UserID: "u1"})
	assert.Nil(t, s.User())
}

// blockingProfiles lets a test hold the first Me call open.
type blockingProfiles struct {
	gate    chan struct{}
	entered chan struct{}
	profile models.Profile
}

func (b *blockingProfiles) Me(ctx context.Context) (models.Profile, error) {
	b.entered <- struct{}{}
	<-b.gate
	return b.profile, nil
}

func TestSessionIgnoresStaleResolution(t *testing.T) {
	profiles := &blockingProfiles{
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
		profile: freeProfile("u1", 0, 0),
	}
	events := &fakeEvents{}
	s := NewSession(events, profiles, nil)
	require.NoError(t, s.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		events.emit(models.SessionEvent{Event: models.EventSignedIn, UserID: "u1"})
		close(done)
	}()
	<-profiles.entered

	events.emit(models.SessionEvent{Event: models.EventSignedOut})
	close(profiles.gate)
	<-done

	assert.Nil(t, s.User())
}

func TestSessionStopClearsUser(t *testing.T) {
	backend := newFakeBackend()
	backend.profile = freeProfile("u1", 0, 0)
	s := NewSession(&fakeEvents{}, backend, nil)
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s.User())

	s.Stop()
	assert.Nil(t, s.User())
}

func TestSessionUserIsCopy(t *testing.T) {
	backend := newFakeBackend()
	backend.profile = freeProfile("u1", 0, 0)
	s := NewSession(&fakeEvents{}, backend, nil)
	_, err := s.Resolve(context.Background())
	require.NoError(t, err)

	u := s.User()
	u.Apelido = "mexido"
	assert.NotEqual(t, "mexido", s.User().Apelido)
}
