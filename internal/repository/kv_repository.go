package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/zoo-checkout/internal/storage"
)

// KVRepo stores cart blobs in the cart_kv table.  It backs the shared
// (cross-tab) scope when a visitor's cart must outlive a cache restart.
type KVRepo struct{ DB *sql.DB }

func NewKVRepo(db *sql.DB) *KVRepo { return &KVRepo{DB: db} }

// Get returns the value stored for owner/key or storage.ErrNotFound.
func (r *KVRepo) Get(ctx context.Context, owner, key string) ([]byte, error) {
	var v []byte
	err := r.DB.QueryRowContext(ctx,
		"SELECT v FROM cart_kv WHERE owner=? AND k=? LIMIT 1",
		owner, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return v, err
}

// Set upserts owner/key.
func (r *KVRepo) Set(ctx context.Context, owner, key string, value []byte) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO cart_kv (owner, k, v) VALUES (?,?,?) ON DUPLICATE KEY UPDATE v=VALUES(v), updated_at=UTC_TIMESTAMP()",
		owner, key, value)
	return err
}

// PurgeIdle deletes rows not written for the given number of days and
// reports how many were removed.
func (r *KVRepo) PurgeIdle(ctx context.Context, days int) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM cart_kv WHERE updated_at < UTC_TIMESTAMP() - INTERVAL ? DAY", days)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
