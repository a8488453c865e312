package model

// Quote is the backend's advisory pricing for the current cart and buyer.
// A nil *Quote means no quote is available and callers display the local
// un-discounted subtotal instead.
type Quote struct {
	SubtotalCents        int64   `json:"subtotal_cents"`
	DiscountCents        int64   `json:"discount_cents"`
	DiscountPct          float64 `json:"discount_pct"`
	TotalCents           int64   `json:"total_cents"`
	MembershipTierAtSale string  `json:"membership_tier_at_sale,omitempty"`
}

// Confirmation identifies an order accepted by the backend.  The order
// itself belongs to the backend; the portal only keeps enough to show the
// confirmation view.
type Confirmation struct {
	OrderID     uint64 `json:"order_id"`
	LookupToken string `json:"lookup_token"`
}

// Receipt is the locally recorded summary of a confirmed order.  Only a
// bcrypt hash of the lookup token is kept.
type Receipt struct {
	OrderID         uint64 `json:"order_id"`
	BuyerName       string `json:"buyer_name"`
	BuyerEmail      string `json:"buyer_email"`
	VisitDate       string `json:"visit_date"`
	TotalCents      int64  `json:"total_cents"`
	LookupTokenHash string `json:"-"`
	CreatedAt       string `json:"created_at"`
}
