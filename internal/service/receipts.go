package service

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/zoo-checkout/internal/checkout"
	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/repository"
	"github.com/iliyamo/zoo-checkout/internal/utils"
)

// ReceiptStore records confirmed orders and looks them up again by lookup
// token.  repository.ReceiptRepo is the MySQL implementation.
type ReceiptStore interface {
	Create(ctx context.Context, rec model.Receipt, lookupToken string) error
	GetForToken(ctx context.Context, orderID uint64, token string) (model.Receipt, error)
}

// ReceiptRecorder stores a receipt for every confirmed order.
type ReceiptRecorder struct {
	Store ReceiptStore
}

// OrderConfirmed implements checkout.Listener.
func (r *ReceiptRecorder) OrderConfirmed(ctx context.Context, c checkout.Confirmed) error {
	return r.Store.Create(ctx, model.Receipt{
		OrderID:    c.Confirmation.OrderID,
		BuyerName:  c.BuyerName,
		BuyerEmail: c.BuyerEmail,
		VisitDate:  c.VisitDate,
		TotalCents: c.TotalCents,
	}, c.Confirmation.LookupToken)
}

// MemoryReceipts keeps receipts in process memory for setups without a
// database.  Tokens are hashed exactly as in the MySQL store.
type MemoryReceipts struct {
	Cost int

	mu   sync.RWMutex
	recs map[uint64]model.Receipt
}

func NewMemoryReceipts(cost int) *MemoryReceipts {
	return &MemoryReceipts{Cost: cost, recs: map[uint64]model.Receipt{}}
}

func (m *MemoryReceipts) Create(_ context.Context, rec model.Receipt, lookupToken string) error {
	hash, err := utils.HashLookupToken(lookupToken, m.Cost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[rec.OrderID]; ok {
		return nil
	}
	rec.LookupTokenHash = hash
	rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	m.recs[rec.OrderID] = rec
	return nil
}

func (m *MemoryReceipts) GetForToken(_ context.Context, orderID uint64, token string) (model.Receipt, error) {
	m.mu.RLock()
	rec, ok := m.recs[orderID]
	m.mu.RUnlock()
	if !ok {
		return model.Receipt{}, repository.ErrReceiptNotFound
	}
	if !utils.VerifyLookupToken(rec.LookupTokenHash, token) {
		return model.Receipt{}, repository.ErrForbidden
	}
	return rec, nil
}
