package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Daily counters live under one key per kind, user and UTC day, and expire
// at the next UTC midnight.

func dayKey(kind, userID string, now time.Time) string {
	return fmt.Sprintf("quota:%s:%s:%s", kind, userID, now.UTC().Format("2006-01-02"))
}

func nextMidnight(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// IncrDaily bumps the counter and returns the new value.
func (r *Redis) IncrDaily(ctx context.Context, kind, userID string, now time.Time) (int64, error) {
	key := dayKey(kind, userID, now)
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, nextMidnight(now))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// DecrDaily undoes one IncrDaily. It never goes below zero.
func (r *Redis) DecrDaily(ctx context.Context, kind, userID string, now time.Time) error {
	key := dayKey(kind, userID, now)
	n, err := r.client.Decr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n < 0 {
		return r.client.Set(ctx, key, 0, time.Until(nextMidnight(now))).Err()
	}
	return nil
}

func (r *Redis) GetDaily(ctx context.Context, kind, userID string, now time.Time) (int64, error) {
	n, err := r.client.Get(ctx, dayKey(kind, userID, now)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
