package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/backend"
	"github.com/iliyamo/zoo-checkout/internal/cart"
	"github.com/iliyamo/zoo-checkout/internal/lines"
	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/notify"
	"github.com/iliyamo/zoo-checkout/internal/session"
)

// CartHandler serves the visitor's cart: reading it, changing quantities,
// recording catalog metadata and streaming change signals.
type CartHandler struct {
	Sessions  *session.Registry
	Notifier  notify.Notifier
	Log       *zap.Logger
	Heartbeat time.Duration // SSE keep-alive interval; zero means 25s
}

// CartView is the rendered cart.
type CartView struct {
	TicketQty     model.CartQuantity   `json:"ticket_qty"`
	POSQty        model.CartQuantity   `json:"pos_qty"`
	TicketTypes   []model.ItemMetadata `json:"ticket_types"`
	POSItems      []model.ItemMetadata `json:"pos_items"`
	Tickets       []model.LineItem     `json:"tickets"`
	POS           []model.LineItem     `json:"pos"`
	SubtotalCents int64                `json:"subtotal_cents"`
}

func viewOf(snap cart.Snapshot) CartView {
	tickets := lines.Build(model.KindTicket, snap.TicketQty, snap.TicketTypes)
	pos := lines.Build(model.KindPOS, snap.POSQty, snap.POSItems)
	return CartView{
		TicketQty:     snap.TicketQty,
		POSQty:        snap.POSQty,
		TicketTypes:   snap.TicketTypes,
		POSItems:      snap.POSItems,
		Tickets:       tickets,
		POS:           pos,
		SubtotalCents: lines.Total(tickets, pos),
	}
}

// Get handles GET /v1/cart.
func (h *CartHandler) Get(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	return c.JSON(http.StatusOK, viewOf(tab.Cart.Snapshot(c.Request().Context())))
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// SetQuantity handles PUT /v1/cart/:kind/items/:id.  A quantity of zero
// or less removes the item.
func (h *CartHandler) SetQuantity(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	kind, ok := kindParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown item kind"})
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "item id is required"})
	}
	var req setQuantityRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity is required"})
	}
	ctx := c.Request().Context()
	if err := tab.Cart.SetQuantity(ctx, kind, id, *req.Quantity); err != nil {
		logOf(h.Log).Error("cart write failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update cart"})
	}
	tab.Quote.Clear()
	return c.JSON(http.StatusOK, viewOf(tab.Cart.Snapshot(ctx)))
}

// MergeMetadata handles POST /v1/cart/:kind/metadata.  The body is either
// an array of items or an {"items": [...]} envelope, as served by the
// catalog endpoints.
func (h *CartHandler) MergeMetadata(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	kind, ok := kindParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown item kind"})
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read body"})
	}
	items, err := backend.DecodeCatalog(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid metadata"})
	}
	added, err := tab.Cart.MergeMetadata(c.Request().Context(), kind, items)
	if err != nil {
		logOf(h.Log).Error("metadata write failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update cart"})
	}
	return c.JSON(http.StatusOK, echo.Map{"added": added})
}

// Clear handles DELETE /v1/cart.
func (h *CartHandler) Clear(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	if err := tab.Cart.ClearAll(c.Request().Context()); err != nil {
		logOf(h.Log).Error("cart clear failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not clear cart"})
	}
	tab.Quote.Clear()
	return c.NoContent(http.StatusNoContent)
}

// Events handles GET /v1/cart/events, a Server-Sent Events stream that
// emits a payload-free "cart-changed" event whenever this tab's cart or
// the visitor's shared cart changes.  Clients re-read GET /v1/cart.
func (h *CartHandler) Events(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	if h.Notifier == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "change stream unavailable"})
	}
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	owner := tab.Cart.Owner()
	tabCh, stopTab := h.Notifier.Subscribe(ctx, notify.TabChannel(owner.TabID))
	defer stopTab()
	visCh, stopVis := h.Notifier.Subscribe(ctx, notify.VisitorChannel(owner.VisitorID))
	defer stopVis()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(res, "retry: 3000\n\n"); err != nil {
		return nil
	}
	res.Flush()

	beat := h.Heartbeat
	if beat <= 0 {
		beat = 25 * time.Second
	}
	tk := time.NewTicker(beat)
	defer tk.Stop()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case <-tabCh:
			line = "id: " + uuid.NewString() + "\nevent: cart-changed\ndata: {}\n\n"
		case <-visCh:
			line = "id: " + uuid.NewString() + "\nevent: cart-changed\ndata: {}\n\n"
		case <-tk.C:
			line = ": keep-alive\n\n"
		}
		if _, err := io.WriteString(res, line); err != nil {
			return nil
		}
		res.Flush()
	}
}
