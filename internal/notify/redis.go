package notify

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus fans change signals out through Redis pub/sub so that tabs served
// by different instances see each other's ticket cart edits.
type RedisBus struct {
	rdb    *redis.Client
	prefix string
	log    *zap.Logger
}

// NewRedisBus returns a Notifier publishing on "<prefix>:<channel>".
func NewRedisBus(rdb *redis.Client, prefix string, log *zap.Logger) *RedisBus {
	if prefix == "" {
		prefix = "cart-changed"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisBus{rdb: rdb, prefix: prefix, log: log}
}

func (r *RedisBus) name(channel string) string { return r.prefix + ":" + channel }

func (r *RedisBus) Publish(ctx context.Context, channel string) error {
	return r.rdb.Publish(ctx, r.name(channel), "").Err()
}

func (r *RedisBus) Subscribe(ctx context.Context, channel string) (<-chan struct{}, func()) {
	ps := r.rdb.Subscribe(ctx, r.name(channel))
	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := ps.Close(); err != nil {
				r.log.Debug("redis unsubscribe failed", zap.String("channel", channel), zap.Error(err))
			}
		})
	}
	return out, cancel
}
