package config

import "time"

// CatalogCacheConfig controls the Redis cache in front of the backend's
// catalog endpoints.  Only the catalog is cached; cart and checkout calls
// always reach the backend.
type CatalogCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCatalogCacheConfig reads CATALOG_CACHE_* variables.
func LoadCatalogCacheConfig() CatalogCacheConfig {
	cfg := CatalogCacheConfig{
		Enabled: envBool("CATALOG_CACHE_ENABLED", true),
		TTL:     envDur("CATALOG_CACHE_TTL", 5*time.Minute),
		Prefix:  envStr("CATALOG_CACHE_PREFIX", "catalog"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return cfg
}
