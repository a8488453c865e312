package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/utils"
)

// ReceiptRepo persists the local record of confirmed orders so the
// confirmation view can be shown again from the lookup link.
type ReceiptRepo struct {
	DB   *sql.DB
	Cost int // bcrypt cost for lookup token hashes
}

func NewReceiptRepo(db *sql.DB, cost int) *ReceiptRepo { return &ReceiptRepo{DB: db, Cost: cost} }

// Create stores a receipt, hashing the lookup token.  Recording the same
// order twice keeps the first row.
func (r *ReceiptRepo) Create(ctx context.Context, rec model.Receipt, lookupToken string) error {
	hash, err := utils.HashLookupToken(lookupToken, r.Cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO order_receipts (order_id, buyer_name, buyer_email, visit_date, total_cents, lookup_token_hash) VALUES (?,?,?,?,?,?)",
		rec.OrderID, rec.BuyerName, strings.ToLower(strings.TrimSpace(rec.BuyerEmail)), rec.VisitDate, rec.TotalCents, hash)
	return err
}

// GetForToken returns the receipt for orderID if token matches the stored
// hash.  A missing row yields ErrReceiptNotFound; a wrong token ErrForbidden.
func (r *ReceiptRepo) GetForToken(ctx context.Context, orderID uint64, token string) (model.Receipt, error) {
	var (
		rec       model.Receipt
		createdAt time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT order_id, buyer_name, buyer_email, visit_date, total_cents, lookup_token_hash, created_at FROM order_receipts WHERE order_id=? LIMIT 1",
		orderID).Scan(&rec.OrderID, &rec.BuyerName, &rec.BuyerEmail, &rec.VisitDate, &rec.TotalCents, &rec.LookupTokenHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Receipt{}, ErrReceiptNotFound
	}
	if err != nil {
		return model.Receipt{}, err
	}
	if !utils.VerifyLookupToken(rec.LookupTokenHash, token) {
		return model.Receipt{}, ErrForbidden
	}
	rec.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return rec, nil
}
