// Package checkout validates and places orders for a tab.  The cart is
// re-read from storage at the moment of submission so an order never goes
// out against a stale rendering of it.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/backend"
	"github.com/iliyamo/zoo-checkout/internal/cart"
	"github.com/iliyamo/zoo-checkout/internal/lines"
	"github.com/iliyamo/zoo-checkout/internal/model"
)

// ErrBusy is returned when a submission is already in flight.
var ErrBusy = errors.New("checkout: submission already in progress")

// State is the checkout screen's position in Idle → Validating →
// Submitting → Success.  A failed attempt goes straight back to Idle and
// keeps its message for State to report.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
)

// Committer places an order.
type Committer interface {
	Commit(ctx context.Context, bearer string, req backend.CheckoutRequest) (model.Confirmation, error)
}

// Cart is the part of the cart store the submitter needs.
type Cart interface {
	Snapshot(ctx context.Context) cart.Snapshot
	ClearAll(ctx context.Context) error
}

// Navigator moves the tab to another view.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Confirmed describes an accepted order to listeners.
type Confirmed struct {
	Confirmation model.Confirmation
	BuyerName    string
	BuyerEmail   string
	VisitDate    string
	Tickets      []model.LineItem
	POS          []model.LineItem
	TotalCents   int64 // local display total; the backend's figure is authoritative
}

// Listener is told about confirmed orders.  Errors are logged and never
// affect the buyer's result.
type Listener interface {
	OrderConfirmed(ctx context.Context, c Confirmed) error
}

// SubmitError carries the message shown to the buyer after a failed
// submission.  For backend rejections it is the backend's text verbatim.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }
func (e *SubmitError) Unwrap() error { return e.Err }

// Submitter owns one tab's checkout state.
type Submitter struct {
	committer Committer
	cart      Cart
	nav       Navigator
	listeners []Listener
	log       *zap.Logger

	mu      sync.Mutex
	state   State
	lastErr string
}

// NewSubmitter wires a submitter for one tab.  nav may be nil.
func NewSubmitter(c Committer, crt Cart, nav Navigator, log *zap.Logger, listeners ...Listener) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{committer: c, cart: crt, nav: nav, listeners: listeners, log: log, state: StateIdle}
}

// State returns the current state and the message kept from the last
// failure, if any.
func (s *Submitter) State() (State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// Touch records a field edit: a finished screen goes back to idle and the
// message kept from a failed attempt is dropped.
func (s *Submitter) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSuccess {
		s.state = StateIdle
	}
	s.lastErr = ""
}

// Submit validates form against the cart as currently stored and places
// the order.  It makes a single attempt.
func (s *Submitter) Submit(ctx context.Context, form Form) (model.Confirmation, error) {
	s.mu.Lock()
	if s.state == StateValidating || s.state == StateSubmitting {
		s.mu.Unlock()
		return model.Confirmation{}, ErrBusy
	}
	s.state = StateValidating
	s.lastErr = ""
	s.mu.Unlock()

	snap := s.cart.Snapshot(ctx)
	tickets := lines.Build(model.KindTicket, snap.TicketQty, snap.TicketTypes)
	pos := lines.Build(model.KindPOS, snap.POSQty, snap.POSItems)

	if lines.Empty(tickets, pos) {
		return model.Confirmation{}, s.fail(&ValidationError{Field: "cart", Message: MsgCartEmpty})
	}
	if verr := validateBuyer(form); verr != nil {
		return model.Confirmation{}, s.fail(verr)
	}

	s.setState(StateSubmitting)
	req := backend.CheckoutRequest{
		BuyerName:  strings.TrimSpace(form.BuyerName),
		BuyerEmail: form.EffectiveEmail(),
		VisitDate:  strings.TrimSpace(form.VisitDate),
		Items:      lines.TicketPayload(tickets),
		POSItems:   lines.POSPayload(pos),
	}
	conf, err := s.committer.Commit(ctx, form.Bearer, req)
	if err != nil {
		s.log.Info("checkout rejected", zap.Error(err))
		return model.Confirmation{}, s.fail(&SubmitError{Message: buyerMessage(err), Err: err})
	}

	if err := s.cart.ClearAll(ctx); err != nil {
		s.log.Warn("cart clear after checkout failed", zap.Uint64("order_id", conf.OrderID), zap.Error(err))
	}
	s.setState(StateSuccess)

	done := Confirmed{
		Confirmation: conf,
		BuyerName:    req.BuyerName,
		BuyerEmail:   req.BuyerEmail,
		VisitDate:    req.VisitDate,
		Tickets:      tickets,
		POS:          pos,
		TotalCents:   lines.Total(tickets, pos),
	}
	for _, l := range s.listeners {
		if err := l.OrderConfirmed(ctx, done); err != nil {
			s.log.Warn("order listener failed", zap.Uint64("order_id", conf.OrderID), zap.Error(err))
		}
	}
	if s.nav != nil {
		s.nav.Navigate(OrderPath(conf))
	}
	return conf, nil
}

// OrderPath is the confirmation view for conf.
func OrderPath(conf model.Confirmation) string {
	return "/orders/" + strconv.FormatUint(conf.OrderID, 10) + "?token=" + url.QueryEscape(conf.LookupToken)
}

func (s *Submitter) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Submitter) fail(err error) error {
	s.mu.Lock()
	s.state = StateIdle
	s.lastErr = err.Error()
	s.mu.Unlock()
	return err
}

func buyerMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return fmt.Sprintf("Checkout failed: %v", err)
}
