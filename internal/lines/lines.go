// Package lines turns stored quantities and catalog metadata into priced
// cart rows.  Everything here is pure: the same inputs always produce the
// same rows in the same order.
package lines

import (
	"github.com/iliyamo/zoo-checkout/internal/model"
)

// Placeholder names used when an item's metadata has not been seen yet.
const (
	PlaceholderTicket = "Ticket"
	PlaceholderItem   = "Item"
)

// Build joins qty with meta.  Rows follow qty's insertion order; entries
// with a non-positive quantity are skipped and unknown IDs are priced at
// zero under a placeholder name.
func Build(kind model.Kind, qty model.CartQuantity, meta []model.ItemMetadata) []model.LineItem {
	byID := make(map[string]model.ItemMetadata, len(meta))
	for _, m := range meta {
		if _, dup := byID[m.ID]; !dup {
			byID[m.ID] = m
		}
	}
	out := make([]model.LineItem, 0, qty.Len())
	qty.Each(func(id string, n int) {
		if n <= 0 {
			return
		}
		m, ok := byID[id]
		if !ok {
			m = model.ItemMetadata{ID: id, Name: placeholder(kind)}
		}
		out = append(out, model.LineItem{
			Kind:           kind,
			ID:             id,
			Name:           m.Name,
			Qty:            n,
			PriceCents:     m.PriceCents,
			LineTotalCents: int64(n) * m.PriceCents,
		})
	})
	return out
}

func placeholder(kind model.Kind) string {
	if kind == model.KindPOS {
		return PlaceholderItem
	}
	return PlaceholderTicket
}

// Total sums the line totals.
func Total(items ...[]model.LineItem) int64 {
	var sum int64
	for _, group := range items {
		for _, li := range group {
			sum += li.LineTotalCents
		}
	}
	return sum
}

// Empty reports whether every group is empty.
func Empty(items ...[]model.LineItem) bool {
	for _, group := range items {
		if len(group) > 0 {
			return false
		}
	}
	return true
}
