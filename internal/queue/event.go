// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderConfirmedQueue is the durable queue confirmed orders are published to.
const OrderConfirmedQueue = "order.confirmed"

// OrderLine is one purchased row inside an OrderConfirmedEvent.
type OrderLine struct {
	Kind       string `json:"kind"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

// OrderConfirmedEvent is published when the backend accepts an order.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the backend.  The lookup token is
// deliberately absent.
type OrderConfirmedEvent struct {
	OrderID         uint64      `json:"order_id"`
	BuyerName       string      `json:"buyer_name"`
	BuyerEmail      string      `json:"buyer_email"`
	VisitDate       string      `json:"visit_date"`
	Lines           []OrderLine `json:"lines"`
	DisplayTotalCts int64       `json:"display_total_cents"`
	ConfirmedAt     string      `json:"confirmed_at"`
}
