package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/zoo-checkout/internal/backend"
	"github.com/iliyamo/zoo-checkout/internal/cart"
	"github.com/iliyamo/zoo-checkout/internal/checkout"
	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/storage"
)

type stubBackend struct{}

func (stubBackend) Preview(context.Context, string, backend.CheckoutRequest) (model.Quote, error) {
	return model.Quote{}, nil
}

func (stubBackend) Commit(context.Context, string, backend.CheckoutRequest) (model.Confirmation, error) {
	return model.Confirmation{OrderID: 501, LookupToken: "abc"}, nil
}

func newRegistry(idle time.Duration) *Registry {
	carts := cart.NewProvider(storage.Scopes{Tab: storage.NewMemoryStore(), Shared: storage.NewMemoryStore()}, nil, nil)
	return NewRegistry(Deps{Carts: carts, Pricer: stubBackend{}, Committer: stubBackend{}}, idle)
}

func TestRegistry_SameOwnerSameTab(t *testing.T) {
	r := newRegistry(time.Hour)
	a := r.Tab(storage.Owner{TabID: "t1"})
	b := r.Tab(storage.Owner{TabID: "t1", VisitorID: "t1"})
	c := r.Tab(storage.Owner{TabID: "t2"})

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "t1", a.Cart.Owner().VisitorID)
}

func TestRegistry_SubmitRecordsNavigation(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(time.Hour)
	tab := r.Tab(storage.Owner{TabID: "t1"})
	require.NoError(t, tab.Cart.SetQuantity(ctx, model.KindTicket, "3", 2))

	_, err := tab.Checkout.Submit(ctx, checkout.Form{BuyerName: "Jane Doe", GuestEmail: "jane@example.com", VisitDate: "2025-06-01"})
	require.NoError(t, err)
	assert.Equal(t, "/orders/501?token=abc", tab.Location())
}

func TestRegistry_SweepDropsIdleTabs(t *testing.T) {
	r := newRegistry(time.Minute)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Tab(storage.Owner{TabID: "old"})
	now = now.Add(50 * time.Second)
	r.Tab(storage.Owner{TabID: "fresh"})
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
}
