// Package session keeps the per-tab checkout state that outlives a single
// request: the latest quote, the submitter's state machine and the view the
// tab was last sent to.  Cart contents are not held here; they live in
// storage and are re-read on every request.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/cart"
	"github.com/iliyamo/zoo-checkout/internal/checkout"
	"github.com/iliyamo/zoo-checkout/internal/quote"
	"github.com/iliyamo/zoo-checkout/internal/storage"
)

// Tab is one browser tab's checkout session.
type Tab struct {
	Cart     *cart.Store
	Quote    *quote.Requester
	Checkout *checkout.Submitter

	mu       sync.Mutex
	location string
	seen     time.Time
}

// Location returns the view the tab was last navigated to, or "".
func (t *Tab) Location() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.location
}

func (t *Tab) navigate(path string) {
	t.mu.Lock()
	t.location = path
	t.mu.Unlock()
}

func (t *Tab) touch(now time.Time) {
	t.mu.Lock()
	t.seen = now
	t.mu.Unlock()
}

func (t *Tab) lastSeen() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen
}

// Deps are the collaborators every tab session is built from.
type Deps struct {
	Carts     *cart.Provider
	Pricer    quote.Pricer
	Committer checkout.Committer
	Listeners []checkout.Listener
	Log       *zap.Logger
}

// Registry hands out Tab sessions and forgets idle ones.
type Registry struct {
	deps Deps
	idle time.Duration
	now  func() time.Time

	mu   sync.Mutex
	tabs map[storage.Owner]*Tab
}

// NewRegistry returns an empty registry.  Sessions unused for longer than
// idle are dropped by Sweep; idle <= 0 defaults to one hour.
func NewRegistry(deps Deps, idle time.Duration) *Registry {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if idle <= 0 {
		idle = time.Hour
	}
	return &Registry{deps: deps, idle: idle, now: time.Now, tabs: map[storage.Owner]*Tab{}}
}

// Tab returns the session for owner, creating it on first use.
func (r *Registry) Tab(owner storage.Owner) *Tab {
	if owner.VisitorID == "" {
		owner.VisitorID = owner.TabID
	}
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tabs[owner]; ok {
		t.touch(now)
		return t
	}
	log := r.deps.Log.With(zap.String("tab_id", owner.TabID))
	t := &Tab{Cart: r.deps.Carts.For(owner), seen: now}
	t.Quote = quote.NewRequester(r.deps.Pricer, log)
	t.Checkout = checkout.NewSubmitter(r.deps.Committer, t.Cart, checkout.NavigatorFunc(t.navigate), log, r.deps.Listeners...)
	r.tabs[owner] = t
	return t
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

// Sweep drops sessions idle for longer than the registry's idle period and
// reports how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for owner, t := range r.tabs {
		if t.lastSeen().Before(cutoff) {
			delete(r.tabs, owner)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if n := r.Sweep(); n > 0 {
				r.deps.Log.Debug("dropped idle tab sessions", zap.Int("count", n))
			}
		}
	}
}
