package main

import (
	"context"
	"errors"
	"testing"

	"desabafa/pkg/apperr"
	"desabafa/pkg/board"

	"github.com/stretchr/testify/assert"
)

func TestFragmentOf(t *testing.T) {
	assert.Equal(t, "access_token=a&refresh_token=r",
		fragmentOf("  https://desabafa.app/auth/callback#access_token=a&refresh_token=r\n"))
	assert.Equal(t, "access_token=a", fragmentOf("#access_token=a"))
	assert.Equal(t, "access_token=a", fragmentOf("access_token=a"))
}

func TestAnonFlag(t *testing.T) {
	assert.Nil(t, anonFlag(false, false))
	assert.True(t, *anonFlag(true, false))
	assert.False(t, *anonFlag(false, true))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "boom", describe(errors.New("boom")))
	assert.Equal(t, "Apelido deve ter pelo menos 3 caracteres (apelido)",
		describe(apperr.Validation("apelido", "Apelido deve ter pelo menos 3 caracteres")))
	assert.Contains(t, describe(apperr.Unauthorized("")), "desabafa login")
	assert.Contains(t, describe(apperr.QuotaExceeded("Limite diário atingido")), "premium")
	assert.Equal(t, "Serviço indisponível. Tente de novo em instantes.", describe(apperr.Unavailable("Serviço indisponível")))
	assert.NotContains(t, describe(apperr.SelfReaction()), "Tente de novo")
}

func TestCommentReactionNeedsPost(t *testing.T) {
	reactionPost = ""
	_, _, err := resolveTarget(context.Background(), &app{}, board.TargetComment, "c1")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, _, err = resolveTarget(context.Background(), &app{}, board.TargetKind("foto"), "x")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}
