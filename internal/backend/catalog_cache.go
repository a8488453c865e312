package backend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/model"
)

// CatalogSource fetches catalog metadata for one item family.
type CatalogSource interface {
	Catalog(ctx context.Context, kind model.Kind) ([]model.ItemMetadata, error)
}

// CachedCatalog keeps catalog responses in Redis for a short TTL.  With a
// nil client it passes every call straight through.
type CachedCatalog struct {
	src    CatalogSource
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// NewCachedCatalog wraps src.  ttl <= 0 defaults to five minutes.
func NewCachedCatalog(src CatalogSource, rdb *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if prefix == "" {
		prefix = "catalog"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedCatalog{src: src, rdb: rdb, prefix: prefix, ttl: ttl, log: log}
}

func (c *CachedCatalog) Catalog(ctx context.Context, kind model.Kind) ([]model.ItemMetadata, error) {
	if c.rdb == nil {
		return c.src.Catalog(ctx, kind)
	}
	key := c.prefix + ":" + string(kind)
	if bs, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var items []model.ItemMetadata
		if err := json.Unmarshal(bs, &items); err == nil {
			return items, nil
		}
		c.log.Debug("catalog cache entry unreadable", zap.String("key", key))
	}
	items, err := c.src.Catalog(ctx, kind)
	if err != nil {
		return nil, err
	}
	if bs, err := json.Marshal(items); err == nil {
		if err := c.rdb.SetEx(context.Background(), key, bs, c.ttl).Err(); err != nil {
			c.log.Debug("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}
