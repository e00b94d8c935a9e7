package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"desabafa/pkg/apperr"
	"desabafa/pkg/models"
	"desabafa/pkg/repository"
)

// Cache is the JSON cache the read paths sit behind. *cache.Redis
// implements it.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	DelPattern(ctx context.Context, pattern string)
}

// DailyCounter keeps per-user counters that reset at UTC midnight.
type DailyCounter interface {
	IncrDaily(ctx context.Context, kind, userID string, now time.Time) (int64, error)
	DecrDaily(ctx context.Context, kind, userID string, now time.Time) error
	GetDaily(ctx context.Context, kind, userID string, now time.Time) (int64, error)
}

// StateStore holds single-use OAuth state values.
type StateStore interface {
	PutState(ctx context.Context, state string, ttl time.Duration) error
	TakeState(ctx context.Context, state string) (bool, error)
}

// Publisher fans events out to connected clients. *broker.Broker
// implements it.
type Publisher interface {
	Emit(ctx context.Context, action, userID string, data any) error
}

// ActionSession carries auth state changes on the event bus.
const ActionSession = "auth.session"

type nopPublisher struct{}

func (nopPublisher) Emit(context.Context, string, string, any) error { return nil }

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) bool            { return false }
func (nopCache) Set(context.Context, string, any, time.Duration) {}
func (nopCache) DelPattern(context.Context, string)               {}

// storeErr translates repository errors into the error taxonomy.
func storeErr(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound(resource)
	case errors.Is(err, repository.ErrNotOwner):
		return apperr.Forbidden("Você só pode remover o que você publicou")
	case errors.Is(err, repository.ErrHandleTaken):
		return apperr.HandleTaken()
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal("").Wrap(err)
}

func requireUser(userID string) error {
	if userID == "" {
		return apperr.Unauthorized("")
	}
	return nil
}

func kindLabel(kind models.QuotaKind) string {
	if kind == models.QuotaPost {
		return "posts"
	}
	return "comentários"
}
