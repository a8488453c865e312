package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema holds the two tables this service owns.  Orders and pricing live
// in the zoo backend's own database.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cart_kv (
		owner      VARCHAR(64)  NOT NULL,
		k          VARCHAR(64)  NOT NULL,
		v          MEDIUMBLOB   NOT NULL,
		updated_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (owner, k),
		KEY idx_cart_kv_updated (updated_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_receipts (
		order_id          BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		buyer_name        VARCHAR(255)    NOT NULL,
		buyer_email       VARCHAR(255)    NOT NULL,
		visit_date        CHAR(10)        NOT NULL,
		total_cents       BIGINT          NOT NULL,
		lookup_token_hash VARCHAR(100)    NOT NULL,
		created_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the service's tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
