package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend names accepted by STORE_TAB_BACKEND and STORE_SHARED_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	JWTSecret string // secret used to verify visitor access tokens; empty disables accounts

	BackendURL     string        // base URL of the zoo REST backend
	BackendTimeout time.Duration // zero means no client-side timeout

	TabStore    string        // memory | redis
	SharedStore string        // memory | redis | mysql
	TabTTL      time.Duration // idle lifetime of tab-scoped keys in Redis
	StorePrefix string        // Redis key prefix for cart blobs
	SharedIdle  int           // days after which untouched shared carts are purged from MySQL
	SessionIdle time.Duration // how long per-tab checkout state is kept without requests

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	RabbitURL  string // empty disables order events
	BcryptCost int    // bcrypt cost for lookup token hashes
}

// Load reads configuration values from the environment, after loading a
// .env file if one exists.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		BackendURL:     strings.TrimRight(must("BACKEND_URL"), "/"),
		BackendTimeout: envDur("BACKEND_TIMEOUT", 0),
		TabStore:       strings.ToLower(envStr("STORE_TAB_BACKEND", BackendMemory)),
		SharedStore:    strings.ToLower(envStr("STORE_SHARED_BACKEND", BackendMemory)),
		TabTTL:         envDur("STORE_TAB_TTL", 24*time.Hour),
		StorePrefix:    envStr("STORE_PREFIX", "cart"),
		SharedIdle:     envInt("STORE_SHARED_IDLE_DAYS", 30),
		SessionIdle:    envDur("SESSION_IDLE", time.Hour),
		RabbitURL:      os.Getenv("RABBITMQ_URL"),
		BcryptCost:     envInt("BCRYPT_COST", 10),
	}
	switch cfg.TabStore {
	case BackendMemory, BackendRedis:
	default:
		log.Fatalf("invalid STORE_TAB_BACKEND: %q", cfg.TabStore)
	}
	switch cfg.SharedStore {
	case BackendMemory, BackendRedis, BackendMySQL:
	default:
		log.Fatalf("invalid STORE_SHARED_BACKEND: %q", cfg.SharedStore)
	}
	// The database also stores order receipts; it is optional unless the
	// shared scope lives there.
	if cfg.SharedStore == BackendMySQL || os.Getenv("DB_HOST") != "" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// HasDB reports whether a database is configured.
func (c Config) HasDB() bool { return c.DBHost != "" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
