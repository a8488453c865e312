// Package quote keeps the backend's advisory price for a tab's cart.  The
// backend is the only place discounts are computed; when it cannot answer
// the tab falls back to the plain subtotal.
package quote

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/backend"
	"github.com/iliyamo/zoo-checkout/internal/lines"
	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/validate"
)

// ErrSuperseded is returned by Refresh when a newer Refresh started before
// this one's response arrived.  The response is discarded.
var ErrSuperseded = errors.New("quote: superseded by a newer request")

// Pricer prices a cart without placing an order.
type Pricer interface {
	Preview(ctx context.Context, bearer string, req backend.CheckoutRequest) (model.Quote, error)
}

// Input is everything a quote depends on.
type Input struct {
	BuyerName  string
	BuyerEmail string
	VisitDate  string
	Tickets    []model.LineItem
	POS        []model.LineItem
	Bearer     string // forwarded only for a valid session; empty for guests
}

// Requester holds the latest quote of one tab.
type Requester struct {
	pricer Pricer
	log    *zap.Logger

	mu      sync.Mutex
	gen     uint64
	current *model.Quote
}

// NewRequester returns a Requester with no quote.
func NewRequester(p Pricer, log *zap.Logger) *Requester {
	if log == nil {
		log = zap.NewNop()
	}
	return &Requester{pricer: p, log: log}
}

// Current returns a copy of the latest quote, or nil.
func (r *Requester) Current() *model.Quote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyQuote(r.current)
}

// Clear drops the current quote.
func (r *Requester) Clear() {
	r.mu.Lock()
	r.gen++
	r.current = nil
	r.mu.Unlock()
}

// Refresh recomputes the quote for in.  An empty cart or an email that does
// not look like one clears the quote without calling the backend.  Backend
// failures also clear it; the error is returned for logging only and the
// quote result is nil.
func (r *Requester) Refresh(ctx context.Context, in Input) (*model.Quote, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if lines.Empty(in.Tickets, in.POS) || !validate.Email(strings.TrimSpace(in.BuyerEmail)) {
		r.current = nil
		r.mu.Unlock()
		return nil, nil
	}
	r.mu.Unlock()

	q, err := r.pricer.Preview(ctx, in.Bearer, backend.CheckoutRequest{
		BuyerName:  strings.TrimSpace(in.BuyerName),
		BuyerEmail: strings.TrimSpace(in.BuyerEmail),
		VisitDate:  in.VisitDate,
		Items:      lines.TicketPayload(in.Tickets),
		POSItems:   lines.POSPayload(in.POS),
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		r.current = nil
		r.log.Warn("quote preview failed; showing subtotal", zap.Error(err))
		return nil, err
	}
	r.current = &q
	return copyQuote(r.current), nil
}

func copyQuote(q *model.Quote) *model.Quote {
	if q == nil {
		return nil
	}
	c := *q
	return &c
}

// Summary is what the checkout screen shows under the line items.
type Summary struct {
	SubtotalCents  int64   `json:"subtotal_cents"`
	DiscountCents  int64   `json:"discount_cents"`
	DiscountPct    float64 `json:"discount_pct"`
	TotalCents     int64   `json:"total_cents"`
	ShowDiscount   bool    `json:"show_discount"`
	MembershipTier string  `json:"membership_tier,omitempty"`
	Quoted         bool    `json:"quoted"`
}

// Summarize prefers the backend quote and otherwise reports the local
// subtotal with no discount.
func Summarize(tickets, pos []model.LineItem, q *model.Quote) Summary {
	if q == nil {
		sub := lines.Total(tickets, pos)
		return Summary{SubtotalCents: sub, TotalCents: sub}
	}
	return Summary{
		SubtotalCents:  q.SubtotalCents,
		DiscountCents:  q.DiscountCents,
		DiscountPct:    q.DiscountPct,
		TotalCents:     q.TotalCents,
		ShowDiscount:   q.DiscountCents > 0,
		MembershipTier: q.MembershipTierAtSale,
		Quoted:         true,
	}
}
