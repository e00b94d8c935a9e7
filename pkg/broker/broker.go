// Package broker fans events out between server instances over Redis
// pub/sub so a WebSocket held by one instance sees events raised on another.
package broker

import (
	"context"
	"sync"

	"desabafa/pkg/envelope"
	"desabafa/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const Channel = "desabafa:eventos"

type HandlerFunc func(envelope.Envelope)

type Broker struct {
	rdb      *redis.Client
	service  string
	handlers sync.Map
	fallback HandlerFunc
	mu       sync.RWMutex
	log      *zap.Logger
}

func New(rdb *redis.Client, service string) *Broker {
	return &Broker{rdb: rdb, service: service, log: logger.Named("broker")}
}

func (b *Broker) Publish(ctx context.Context, env envelope.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, Channel, data).Err()
}

// Emit publishes action for userID, or for everyone when userID is empty.
func (b *Broker) Emit(ctx context.Context, action, userID string, data any) error {
	env, err := envelope.NewUserEvent(action, b.service, userID, data)
	if err != nil {
		return err
	}
	return b.Publish(ctx, env)
}

// On registers a handler for one action.
func (b *Broker) On(action string, fn HandlerFunc) {
	b.handlers.Store(action, fn)
}

// OnAny receives every envelope without a dedicated handler.
func (b *Broker) OnAny(fn HandlerFunc) {
	b.mu.Lock()
	b.fallback = fn
	b.mu.Unlock()
}

// Run consumes the channel until ctx ends.
func (b *Broker) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, Channel)
	defer sub.Close()
	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			env, err := envelope.Unmarshal([]byte(msg.Payload))
			if err != nil {
				b.log.Debug("envelope inválido", zap.Error(err))
				continue
			}
			b.dispatch(env)
		}
	}
}

func (b *Broker) dispatch(env envelope.Envelope) {
	if fn, ok := b.handlers.Load(env.Action); ok {
		fn.(HandlerFunc)(env)
		return
	}
	b.mu.RLock()
	fallback := b.fallback
	b.mu.RUnlock()
	if fallback != nil {
		fallback(env)
	}
}
