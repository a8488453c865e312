// Package storage defines the key/value scopes the cart lives in.  A scope
// is a flat namespace of JSON blobs grouped by owner: the tab scope is
// owned by a single browser tab and the shared scope by a visitor across
// all of their tabs.  Implementations exist for process memory, Redis and
// MySQL; callers depend only on the Store interface.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Scope names one of the two storage scopes.
type Scope string

const (
	ScopeTab    Scope = "tab"
	ScopeShared Scope = "shared"
)

// Store is a string-keyed blob store partitioned by owner.
type Store interface {
	Get(ctx context.Context, owner, key string) ([]byte, error)
	Set(ctx context.Context, owner, key string, value []byte) error
}

// Scopes bundles the tab-local and cross-tab stores.
type Scopes struct {
	Tab    Store
	Shared Store
}

// Owner identifies whose data a request touches in each scope.
type Owner struct {
	TabID     string
	VisitorID string
}

// For returns the store and owner key for the given scope.
func (s Scopes) For(scope Scope, o Owner) (Store, string) {
	if scope == ScopeShared {
		return s.Shared, o.VisitorID
	}
	return s.Tab, o.TabID
}
