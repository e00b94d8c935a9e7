package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const statePrefix = "oauth:state:"

// PutState remembers an OAuth state value until ttl.
func (r *Redis) PutState(ctx context.Context, state string, ttl time.Duration) error {
	return r.client.Set(ctx, statePrefix+state, 1, ttl).Err()
}

// TakeState consumes a state value. It reports false for unknown, expired or
// already used values.
func (r *Redis) TakeState(ctx context.Context, state string) (bool, error) {
	err := r.client.GetDel(ctx, statePrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
