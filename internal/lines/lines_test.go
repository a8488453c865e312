package lines

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/zoo-checkout/internal/model"
)

func qtyOf(pairs ...any) model.CartQuantity {
	q := model.NewCartQuantity()
	for i := 0; i+1 < len(pairs); i += 2 {
		q.Set(pairs[i].(string), pairs[i+1].(int))
	}
	return q
}

func TestBuild_AdultTicketExample(t *testing.T) {
	meta := []model.ItemMetadata{{ID: "3", Name: "Adult", PriceCents: 2000}}
	got := Build(model.KindTicket, qtyOf("3", 2), meta)

	assert.Equal(t, []model.LineItem{{
		Kind: model.KindTicket, ID: "3", Name: "Adult", Qty: 2, PriceCents: 2000, LineTotalCents: 4000,
	}}, got)
}

func TestBuild_Deterministic(t *testing.T) {
	q := qtyOf("5", 1, "1", 3, "9", 2)
	meta := []model.ItemMetadata{
		{ID: "9", Name: "Child", PriceCents: 1200},
		{ID: "1", Name: "Senior", PriceCents: 1500},
	}
	first := Build(model.KindTicket, q, meta)
	second := Build(model.KindTicket, q, meta)

	assert.Equal(t, first, second)
	ids := make([]string, 0, len(first))
	for _, li := range first {
		ids = append(ids, li.ID)
	}
	assert.Equal(t, []string{"5", "1", "9"}, ids)
}

func TestBuild_DropsNonPositive(t *testing.T) {
	var q model.CartQuantity
	require.NoError(t, json.Unmarshal([]byte(`{"1":0,"2":-3,"3":1}`), &q))

	got := Build(model.KindPOS, q, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
	for _, li := range got {
		assert.Positive(t, li.Qty)
	}
}

func TestBuild_MissingMetadataUsesPlaceholder(t *testing.T) {
	tickets := Build(model.KindTicket, qtyOf("42", 2), nil)
	pos := Build(model.KindPOS, qtyOf("7", 1), []model.ItemMetadata{{ID: "8", Name: "Hat", PriceCents: 900}})

	require.Len(t, tickets, 1)
	assert.Equal(t, PlaceholderTicket, tickets[0].Name)
	assert.Equal(t, int64(0), tickets[0].PriceCents)
	assert.Equal(t, int64(0), tickets[0].LineTotalCents)

	require.Len(t, pos, 1)
	assert.Equal(t, PlaceholderItem, pos[0].Name)
}

func TestBuild_FirstMetadataEntryWins(t *testing.T) {
	meta := []model.ItemMetadata{
		{ID: "1", Name: "Adult", PriceCents: 2000},
		{ID: "1", Name: "Adult (stale)", PriceCents: 1},
	}
	got := Build(model.KindTicket, qtyOf("1", 1), meta)
	assert.Equal(t, "Adult", got[0].Name)
}

func TestTotal_SumsLineTotals(t *testing.T) {
	meta := []model.ItemMetadata{
		{ID: "1", Name: "Adult", PriceCents: 2000},
		{ID: "2", Name: "Child", PriceCents: 1333},
	}
	tickets := Build(model.KindTicket, qtyOf("1", 3, "2", 7), meta)
	pos := Build(model.KindPOS, qtyOf("p", 2), []model.ItemMetadata{{ID: "p", Name: "Juice", PriceCents: 299}})

	for _, li := range append(append([]model.LineItem{}, tickets...), pos...) {
		assert.Equal(t, int64(li.Qty)*li.PriceCents, li.LineTotalCents)
	}
	assert.Equal(t, int64(3*2000+7*1333+2*299), Total(tickets, pos))
	assert.Equal(t, int64(0), Total())
	assert.True(t, Empty(nil, []model.LineItem{}))
	assert.False(t, Empty(nil, pos))
}

func TestPayload_WireIDs(t *testing.T) {
	items := []model.LineItem{
		{ID: "3", Qty: 2},
		{ID: "007", Qty: 1},
		{ID: "tk-adult", Qty: 1},
	}
	bs, err := json.Marshal(TicketPayload(items))
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"ticket_type_id":3,"quantity":2},
		{"ticket_type_id":"007","quantity":1},
		{"ticket_type_id":"tk-adult","quantity":1}
	]`, string(bs))

	bs, err = json.Marshal(POSPayload(nil))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(bs))
}
