// Package apperr is the error taxonomy shared by the data service and the
// board client. Server handlers render an *Error as {"erro", "codigo"} and the
// client decodes that body back into the same type.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeHandleTaken    Code = "HANDLE_TAKEN"
	CodeHandleCooldown Code = "HANDLE_COOLDOWN"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeForbidden      Code = "FORBIDDEN"
	CodeSelfReaction   Code = "SELF_REACTION"
	CodeQuotaExceeded  Code = "QUOTA_EXCEEDED"
	CodeTogglePending  Code = "TOGGLE_PENDING"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeNotFound       Code = "NOT_FOUND"
	CodeUnavailable    Code = "UNAVAILABLE"
	CodeInternal       Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodeValidation:     http.StatusUnprocessableEntity,
	CodeHandleTaken:    http.StatusConflict,
	CodeHandleCooldown: http.StatusTooManyRequests,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeForbidden:      http.StatusForbidden,
	CodeSelfReaction:   http.StatusForbidden,
	CodeQuotaExceeded:  http.StatusTooManyRequests,
	CodeTogglePending:  http.StatusConflict,
	CodeRateLimited:    http.StatusTooManyRequests,
	CodeNotFound:       http.StatusNotFound,
	CodeUnavailable:    http.StatusServiceUnavailable,
	CodeInternal:       http.StatusInternalServerError,
}

// Status maps a code to its HTTP status, defaulting to 500.
func (c Code) Status() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

type Error struct {
	Code    Code   `json:"codigo"`
	Message string `json:"erro"`
	Field   string `json:"campo,omitempty"`
	Status  int    `json:"-"`
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same code, so sentinels declared elsewhere
// compare equal to errors decoded off the wire.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap attaches an underlying cause. The receiver is copied.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Status: code.Status()}
}

func Validation(field, message string) *Error {
	e := New(CodeValidation, message)
	e.Field = field
	return e
}

func HandleTaken() *Error {
	return Validation("apelido", "Este apelido já está em uso").withCode(CodeHandleTaken)
}

func HandleCooldown(message string) *Error {
	return New(CodeHandleCooldown, message)
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "Não autenticado"
	}
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

func SelfReaction() *Error {
	return New(CodeSelfReaction, "Você não pode curtir seu próprio conteúdo")
}

func QuotaExceeded(message string) *Error {
	return New(CodeQuotaExceeded, message)
}

func TogglePending() *Error {
	return New(CodeTogglePending, "Reação em andamento")
}

func RateLimited() *Error {
	return New(CodeRateLimited, "Muitas requisições, aguarde um pouco")
}

func NotFound(resource string) *Error {
	return New(CodeNotFound, resource+" não encontrado")
}

func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

func Internal(message string) *Error {
	if message == "" {
		message = "Erro interno"
	}
	return New(CodeInternal, message)
}

func (e *Error) withCode(c Code) *Error {
	e.Code = c
	e.Status = c.Status()
	return e
}

// As extracts the *Error from a chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries code anywhere in its chain.
func HasCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// Retryable is false for validation and permission failures. Anything that
// is not an *Error is treated as transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	e, ok := As(err)
	if !ok {
		return true
	}
	return e.Code == CodeUnavailable || e.Code == CodeInternal
}

// From converts any error into an *Error, hiding unknown causes behind a
// generic internal error.
func From(err error) *Error {
	if e, ok := As(err); ok {
		return e
	}
	return Internal("").Wrap(err)
}
