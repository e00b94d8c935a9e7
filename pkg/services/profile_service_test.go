package services

import (
	"context"
	"testing"
	"time"

	"desabafa/pkg/apperr"
	"desabafa/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userA = "8f14e45f-ceea-467f-a0e6-1b2c3d4e5f60"

func TestMeCreatesDefaultProfile(t *testing.T) {
	w := newWorld()
	p, err := w.profiles.Me(context.Background(), userA)
	require.NoError(t, err)

	assert.Equal(t, "anonimo_8f14e4", p.Apelido)
	assert.Equal(t, models.PlanFree, p.Plano)
	assert.False(t, p.MostrarApelido)
	assert.Contains(t, p.AvatarURL, "name=A")
	assert.Equal(t, 1, p.Limites.LimitePosts)
	assert.Equal(t, 3, p.Limites.LimiteComentarios)
}

func TestEnsureRetriesCollidingDefaultHandle(t *testing.T) {
	w := newWorld()
	w.profRepo.takenFor["anonimo_8f14e4"] = true

	p, err := w.profiles.Ensure(context.Background(), userA)
	require.NoError(t, err)
	assert.Equal(t, "anonimo_8f14e45fceea", p.Apelido)
}

func TestMeRequiresUser(t *testing.T) {
	w := newWorld()
	_, err := w.profiles.Me(context.Background(), "")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

func TestUpdateHandleStartsCooldown(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	now := time.Now().Add(time.Hour)
	w.profiles.(*profileService).now = func() time.Time { return now }

	_, err := w.profiles.Ensure(ctx, userA)
	require.NoError(t, err)

	p, err := w.profiles.Update(ctx, userA, models.ProfileUpdate{Apelido: strptr("  Corvo_Noturno ")})
	require.NoError(t, err)
	assert.Equal(t, "Corvo_Noturno", p.Apelido)
	assert.Contains(t, p.AvatarURL, "name=C")
	assert.Equal(t, now.Add(models.HandleChangeCooldown), p.ProximaTrocaApelido)

	_, err = w.profiles.Update(ctx, userA, models.ProfileUpdate{Apelido: strptr("outro")})
	assert.True(t, apperr.HasCode(err, apperr.CodeHandleCooldown))

	// same handle and visibility toggles are not changes
	p, err = w.profiles.Update(ctx, userA, models.ProfileUpdate{Apelido: strptr("Corvo_Noturno"), MostrarApelido: boolptr(true)})
	require.NoError(t, err)
	assert.True(t, p.MostrarApelido)

	events := w.events.sessionEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, models.EventUserUpdated, events[len(events)-1].Event)
	assert.Contains(t, w.cache.deleted, "posts:*")
}

func TestUpdateHandleValidationAndConflict(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	_, err := w.profiles.Ensure(ctx, userA)
	require.NoError(t, err)
	_, err = w.profiles.Ensure(ctx, "bbbbbbbb-0000-0000-0000-000000000000")
	require.NoError(t, err)

	_, err = w.profiles.Update(ctx, userA, models.ProfileUpdate{Apelido: strptr("ab")})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = w.profiles.Update(ctx, userA, models.ProfileUpdate{Apelido: strptr("com espaço")})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = w.profiles.Update(ctx, userA, models.ProfileUpdate{Apelido: strptr("ANONIMO_BBBBBB")})
	assert.True(t, apperr.HasCode(err, apperr.CodeHandleTaken))
}

func TestPremiumChangesHandleFreely(t *testing.T) {
	ctx := context.Background()
	w := newWorld()

	p, err := w.profiles.Upgrade(ctx, userA)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, p.Plano)
	assert.Equal(t, models.Unlimited, p.Limites.LimitePosts)

	_, err = w.profiles.Update(ctx, userA, models.ProfileUpdate{Apelido: strptr("primeiro")})
	require.NoError(t, err)
	_, err = w.profiles.Update(ctx, userA, models.ProfileUpdate{Apelido: strptr("segundo")})
	require.NoError(t, err)
}

func TestPublicProfile(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	_, err := w.profiles.Ensure(ctx, userA)
	require.NoError(t, err)

	pub, err := w.profiles.Public(ctx, "ANONIMO_8F14E4")
	require.NoError(t, err)
	assert.Equal(t, "anonimo_8f14e4", pub.Apelido)

	_, err = w.profiles.Public(ctx, "ninguem")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
