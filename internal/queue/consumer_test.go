package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() OrderConfirmedEvent {
	return OrderConfirmedEvent{
		OrderID:         501,
		BuyerName:       "Jane Doe",
		BuyerEmail:      "jane@example.com",
		VisitDate:       "2025-06-01",
		Lines:           []OrderLine{{Kind: "ticket", ID: "3", Name: "Adult", Qty: 2, PriceCents: 2000}},
		DisplayTotalCts: 4000,
		ConfirmedAt:     "2025-05-20T10:00:00Z",
	}
}

func TestFormatOrderLine(t *testing.T) {
	line := FormatOrderLine(sampleEvent())
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"))
	assert.Contains(t, line, "order_id=501")
	assert.Contains(t, line, `buyer="Jane Doe"`)
	assert.Contains(t, line, "items=[ticket:Adultx2]")
	assert.Contains(t, line, "total=4000 cents")
}

func TestHandleMessage_AppendsToOrdersLog(t *testing.T) {
	dir := t.TempDir()
	c := &Consumer{LogDir: filepath.Join(dir, "logs")}

	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, c.handleMessage(body))
	require.NoError(t, c.handleMessage(body))

	bs, err := os.ReadFile(filepath.Join(dir, "logs", "orders.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(bs), "Order confirmed"))
}

func TestHandleMessage_RejectsGarbage(t *testing.T) {
	c := &Consumer{LogDir: t.TempDir()}
	assert.Error(t, c.handleMessage([]byte("not json")))
}
