package services

import (
	"context"
	"testing"

	"desabafa/pkg/apperr"
	"desabafa/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTogglePostLikeThenUnlike(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	post := seedPost(w)

	res, err := w.reactions.TogglePost(ctx, userA, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionResult{Liked: true, Total: 1}, res)

	res, err = w.reactions.TogglePost(ctx, userA, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionResult{Liked: false, Total: 0}, res)

	notes := w.notes.all()
	require.Len(t, notes, 1, "only the like notifies")
	assert.Equal(t, userB, notes[0].UserID)
	assert.Equal(t, models.NotifyReaction, notes[0].Tipo)
}

func TestSelfReactionRefused(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	post := seedPost(w)
	c := w.commRepo.add(models.Comment{PostID: post.ID, AutorID: strptr(userA), Conteudo: "meu"})

	_, err := w.reactions.TogglePost(ctx, userB, post.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeSelfReaction))

	_, err = w.reactions.ToggleComment(ctx, userA, c.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeSelfReaction))
	assert.False(t, apperr.Retryable(err))
}

func TestToggleRequiresUserAndTarget(t *testing.T) {
	ctx := context.Background()
	w := newWorld()

	_, err := w.reactions.TogglePost(ctx, "", "x")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	_, err = w.reactions.ToggleComment(ctx, userA, "nenhum")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestAnonymousContentCanBeLiked(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	post := w.postRepo.add(models.Post{Tipo: models.CategoryDesabafo, Conteudo: "sem autor", Anonimo: true})

	res, err := w.reactions.TogglePost(ctx, userA, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Empty(t, w.notes.all())
}
