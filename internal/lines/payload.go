package lines

import (
	"encoding/json"
	"strconv"

	"github.com/iliyamo/zoo-checkout/internal/model"
)

// TicketItem is one ticket row in a checkout request.
type TicketItem struct {
	TicketTypeID json.RawMessage `json:"ticket_type_id"`
	Quantity     int             `json:"quantity"`
}

// POSItem is one point-of-sale row in a checkout request.
type POSItem struct {
	POSItemID json.RawMessage `json:"pos_item_id"`
	Quantity  int             `json:"quantity"`
}

// TicketPayload converts ticket rows into request items.
func TicketPayload(items []model.LineItem) []TicketItem {
	out := make([]TicketItem, 0, len(items))
	for _, li := range items {
		out = append(out, TicketItem{TicketTypeID: wireID(li.ID), Quantity: li.Qty})
	}
	return out
}

// POSPayload converts POS rows into request items.
func POSPayload(items []model.LineItem) []POSItem {
	out := make([]POSItem, 0, len(items))
	for _, li := range items {
		out = append(out, POSItem{POSItemID: wireID(li.ID), Quantity: li.Qty})
	}
	return out
}

// wireID sends numeric identifiers as JSON numbers, which is what the
// backend's integer primary keys expect, and anything else as a string.
func wireID(id string) json.RawMessage {
	if _, err := strconv.ParseUint(id, 10, 64); err == nil && (id == "0" || id[0] != '0') {
		return json.RawMessage(id)
	}
	bs, _ := json.Marshal(id)
	return bs
}
