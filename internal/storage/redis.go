package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each value under "<prefix>:<owner>:<key>".  A positive
// TTL is refreshed on every write, so an abandoned tab's cart eventually
// disappears the way sessionStorage does when the tab closes.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore binds a store to rdb.  ttl <= 0 keeps values forever.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "cart"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(owner, key string) string {
	return s.prefix + ":" + owner + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, owner, key string) ([]byte, error) {
	bs, err := s.rdb.Get(ctx, s.key(owner, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return bs, err
}

func (s *RedisStore) Set(ctx context.Context, owner, key string, value []byte) error {
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, s.key(owner, key), value, ttl).Err()
}
