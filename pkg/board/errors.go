package board

import (
	"errors"

	"desabafa/pkg/apperr"
)

// The apperr sentinels compare by code, so an error decoded from the service
// matches the local one with errors.Is.
var (
	ErrUnauthenticated = apperr.Unauthorized("Faça login para continuar")
	ErrSelfReaction    = apperr.SelfReaction()
	ErrTogglePending   = apperr.TogglePending()
	ErrQuotaExceeded   = apperr.QuotaExceeded("Limite diário atingido")
	ErrReplyToReply    = apperr.Validation("parent_id", "Não é possível responder a uma resposta")

	ErrSessionStarted = errors.New("board: sessão já iniciada")
)
