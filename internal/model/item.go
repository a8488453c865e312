package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ItemMetadata describes a catalog item as it was last seen by the visitor.
// PriceCents is for display only; the backend reprices every order.
//
// The catalog endpoints identify tickets by ticket_type_id and POS items by
// pos_item_id, sometimes as numbers and sometimes as strings, so decoding
// accepts either field (or a plain id) in either form.  IDs are always
// compared as strings.
type ItemMetadata struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Category   string `json:"category,omitempty"`
}

type itemMetadataWire struct {
	ID           json.RawMessage `json:"id"`
	TicketTypeID json.RawMessage `json:"ticket_type_id"`
	POSItemID    json.RawMessage `json:"pos_item_id"`
	Name         string          `json:"name"`
	PriceCents   json.Number     `json:"price_cents"`
	Category     string          `json:"category"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *ItemMetadata) UnmarshalJSON(data []byte) error {
	var w itemMetadataWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id := rawID(w.TicketTypeID)
	if id == "" {
		id = rawID(w.POSItemID)
	}
	if id == "" {
		id = rawID(w.ID)
	}
	var price int64
	if w.PriceCents != "" {
		if n, err := w.PriceCents.Int64(); err == nil {
			price = n
		} else if f, err := w.PriceCents.Float64(); err == nil {
			price = int64(f)
		}
	}
	if price < 0 {
		price = 0
	}
	*m = ItemMetadata{ID: id, Name: w.Name, PriceCents: price, Category: w.Category}
	return nil
}

// rawID renders a JSON number or string as a trimmed identifier string.
func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if unq, err := strconv.Unquote(s); err == nil {
		return strings.TrimSpace(unq)
	}
	return s
}

// LineItem is a priced cart row derived from a CartQuantity entry and its
// metadata.  It is recomputed on every read and never persisted.
type LineItem struct {
	Kind           Kind   `json:"kind"`
	ID             string `json:"id"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	PriceCents     int64  `json:"price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}
