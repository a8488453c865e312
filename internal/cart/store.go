// Package cart persists what a visitor has put in their cart.  Quantities
// and catalog metadata are stored as JSON blobs in the tab and shared
// storage scopes; every mutation emits one payload-free change signal so
// independently rendered views re-read storage instead of sharing memory.
//
// Reads never fail: a missing key or a blob that does not parse is treated
// as an empty cart.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/notify"
	"github.com/iliyamo/zoo-checkout/internal/storage"
)

// Storage keys.  They match the keys the browser portal has always used so
// existing carts survive the move to server-side storage.
const (
	KeyTicketQty   = "cartQty"
	KeyTicketTypes = "ticketTypes"
	KeyPOSQty      = "posCart"
	KeyPOSItems    = "posItems"
)

// ParseError reports a stored blob that could not be decoded.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("cart: parse %s: %v", e.Key, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Provider hands out per-owner cart stores backed by shared scopes and a
// shared notifier.
type Provider struct {
	scopes   storage.Scopes
	notifier notify.Notifier
	log      *zap.Logger
}

// NewProvider builds a Provider.  A nil notifier disables change signals.
func NewProvider(scopes storage.Scopes, notifier notify.Notifier, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{scopes: scopes, notifier: notifier, log: log}
}

// For returns the cart store of one tab/visitor pair.
func (p *Provider) For(owner storage.Owner) *Store {
	if owner.VisitorID == "" {
		owner.VisitorID = owner.TabID
	}
	return &Store{p: p, owner: owner, log: p.log.With(zap.String("tab_id", owner.TabID), zap.String("visitor_id", owner.VisitorID))}
}

// Notifier exposes the provider's notifier for listeners.
func (p *Provider) Notifier() notify.Notifier { return p.notifier }

// Store is the cart of a single tab.  Ticket quantities are mirrored into
// the visitor's shared scope; POS quantities stay in the tab.
type Store struct {
	p     *Provider
	owner storage.Owner
	log   *zap.Logger
}

// Owner returns the tab/visitor pair this store belongs to.
func (s *Store) Owner() storage.Owner { return s.owner }

func qtyKey(kind model.Kind) string {
	if kind == model.KindPOS {
		return KeyPOSQty
	}
	return KeyTicketQty
}

func metaKey(kind model.Kind) string {
	if kind == model.KindPOS {
		return KeyPOSItems
	}
	return KeyTicketTypes
}

// qtyScopes lists the scopes a kind's quantities are written to, in read
// priority order.
func qtyScopes(kind model.Kind) []storage.Scope {
	if kind == model.KindPOS {
		return []storage.Scope{storage.ScopeTab}
	}
	return []storage.Scope{storage.ScopeShared, storage.ScopeTab}
}

// Ticket metadata is catalog data and is shared across tabs; POS metadata
// is cleared with the POS cart and therefore stays in the tab.
func metaScope(kind model.Kind) storage.Scope {
	if kind == model.KindPOS {
		return storage.ScopeTab
	}
	return storage.ScopeShared
}

func decodeQuantities(key string, bs []byte) (model.CartQuantity, *ParseError) {
	q := model.NewCartQuantity()
	if err := json.Unmarshal(bs, &q); err != nil {
		return model.NewCartQuantity(), &ParseError{Key: key, Err: err}
	}
	return q, nil
}

func decodeMetadata(key string, bs []byte) ([]model.ItemMetadata, *ParseError) {
	var items []model.ItemMetadata
	if err := json.Unmarshal(bs, &items); err != nil {
		return []model.ItemMetadata{}, &ParseError{Key: key, Err: err}
	}
	if items == nil {
		items = []model.ItemMetadata{}
	}
	return items, nil
}

// load fetches a blob, reporting whether it exists.  Store errors are
// logged and treated as absence.
func (s *Store) load(ctx context.Context, scope storage.Scope, key string) ([]byte, bool) {
	st, owner := s.p.scopes.For(scope, s.owner)
	if st == nil {
		return nil, false
	}
	bs, err := st.Get(ctx, owner, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Debug("cart read failed", zap.String("scope", string(scope)), zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return bs, true
}

// ReadQuantities returns the kind's quantity map, or an empty map when
// nothing usable is stored.
func (s *Store) ReadQuantities(ctx context.Context, kind model.Kind) model.CartQuantity {
	key := qtyKey(kind)
	for _, scope := range qtyScopes(kind) {
		bs, ok := s.load(ctx, scope, key)
		if !ok {
			continue
		}
		q, perr := decodeQuantities(key, bs)
		if perr != nil {
			s.log.Debug("discarding unreadable cart", zap.String("scope", string(scope)), zap.Error(perr))
			continue
		}
		return q
	}
	return model.NewCartQuantity()
}

// WriteQuantities persists next for kind and signals a change.  Entries
// with a non-positive quantity are dropped before writing.
func (s *Store) WriteQuantities(ctx context.Context, kind model.Kind, next model.CartQuantity) error {
	clean := model.NewCartQuantity()
	next.Each(func(id string, qty int) { clean.Set(id, qty) })
	bs, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("cart: encode quantities: %w", err)
	}
	var errs []error
	for _, scope := range qtyScopes(kind) {
		if err := s.save(ctx, scope, qtyKey(kind), bs); err != nil {
			errs = append(errs, err)
		}
	}
	s.changed(ctx, kind == model.KindTicket)
	return errors.Join(errs...)
}

// SetQuantity updates a single entry with a read-modify-write against
// storage.  qty <= 0 removes the entry.
func (s *Store) SetQuantity(ctx context.Context, kind model.Kind, id string, qty int) error {
	q := s.ReadQuantities(ctx, kind)
	q.Set(id, qty)
	return s.WriteQuantities(ctx, kind, q)
}

// ReadMetadata returns the cached catalog entries for kind.
func (s *Store) ReadMetadata(ctx context.Context, kind model.Kind) []model.ItemMetadata {
	key := metaKey(kind)
	bs, ok := s.load(ctx, metaScope(kind), key)
	if !ok {
		return []model.ItemMetadata{}
	}
	items, perr := decodeMetadata(key, bs)
	if perr != nil {
		s.log.Debug("discarding unreadable metadata", zap.Error(perr))
	}
	return items
}

// MergeMetadata adds entries whose IDs are not yet known.  Known entries
// are never overwritten.  It reports how many entries were added.
func (s *Store) MergeMetadata(ctx context.Context, kind model.Kind, incoming []model.ItemMetadata) (int, error) {
	existing := s.ReadMetadata(ctx, kind)
	seen := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		seen[m.ID] = struct{}{}
	}
	added := 0
	for _, m := range incoming {
		if m.ID == "" {
			continue
		}
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		existing = append(existing, m)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	bs, err := json.Marshal(existing)
	if err != nil {
		return 0, fmt.Errorf("cart: encode metadata: %w", err)
	}
	err = s.save(ctx, metaScope(kind), metaKey(kind), bs)
	s.changed(ctx, kind == model.KindTicket)
	return added, err
}

// ClearAll empties both quantity maps in every scope and the POS metadata.
// Ticket metadata is catalog data and survives.  Calling it repeatedly
// leaves storage in the same state.
func (s *Store) ClearAll(ctx context.Context) error {
	empty := []byte("{}")
	var errs []error
	for _, scope := range qtyScopes(model.KindTicket) {
		if err := s.save(ctx, scope, KeyTicketQty, empty); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.save(ctx, storage.ScopeTab, KeyPOSQty, empty); err != nil {
		errs = append(errs, err)
	}
	if err := s.save(ctx, storage.ScopeTab, KeyPOSItems, []byte("[]")); err != nil {
		errs = append(errs, err)
	}
	s.changed(ctx, true)
	return errors.Join(errs...)
}

// Snapshot reads both item families as they are stored right now.
func (s *Store) Snapshot(ctx context.Context) Snapshot {
	return Snapshot{
		TicketQty:   s.ReadQuantities(ctx, model.KindTicket),
		TicketTypes: s.ReadMetadata(ctx, model.KindTicket),
		POSQty:      s.ReadQuantities(ctx, model.KindPOS),
		POSItems:    s.ReadMetadata(ctx, model.KindPOS),
	}
}

func (s *Store) save(ctx context.Context, scope storage.Scope, key string, bs []byte) error {
	st, owner := s.p.scopes.For(scope, s.owner)
	if st == nil {
		return nil
	}
	if err := st.Set(ctx, owner, key, bs); err != nil {
		return fmt.Errorf("cart: write %s/%s: %w", scope, key, err)
	}
	return nil
}

// changed signals the tab and, for cross-tab data, the visitor.
func (s *Store) changed(ctx context.Context, crossTab bool) {
	n := s.p.notifier
	if n == nil {
		return
	}
	if err := n.Publish(ctx, notify.TabChannel(s.owner.TabID)); err != nil {
		s.log.Warn("cart change signal failed", zap.Error(err))
	}
	if crossTab {
		if err := n.Publish(ctx, notify.VisitorChannel(s.owner.VisitorID)); err != nil {
			s.log.Warn("cart change signal failed", zap.Error(err))
		}
	}
}

// Snapshot is a point-in-time copy of everything in the cart.
type Snapshot struct {
	TicketQty   model.CartQuantity
	TicketTypes []model.ItemMetadata
	POSQty      model.CartQuantity
	POSItems    []model.ItemMetadata
}
