package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"desabafa/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Redis struct {
	client *redis.Client
}

// New connects and pings. The pool stays small; most traffic is cache reads.
func New(ctx context.Context, url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url inválida: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 3

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping falhou: %w", err)
	}
	return &Redis{client: client}, nil
}

func NewFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Client exposes the connection for pub/sub.
func (r *Redis) Client() *redis.Client { return r.client }

// Get decodes a JSON value into dest. Misses and decode errors both report
// false.
func (r *Redis) Get(ctx context.Context, key string, dest any) bool {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Named("cache").Debug("set falhou", zap.String("key", key), zap.Error(err))
	}
}

func (r *Redis) Del(ctx context.Context, keys ...string) {
	r.client.Del(ctx, keys...)
}

// DelPattern deletes keys matching pattern in batches of 100.
func (r *Redis) DelPattern(ctx context.Context, pattern string) {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	const batchSize = 100

	pipe := r.client.Pipeline()
	count := 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++

		if count >= batchSize {
			pipe.Exec(ctx)
			count = 0
		}
	}

	if count > 0 {
		pipe.Exec(ctx)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
