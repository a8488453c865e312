package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/backend"
	"github.com/iliyamo/zoo-checkout/internal/checkout"
	"github.com/iliyamo/zoo-checkout/internal/lines"
	"github.com/iliyamo/zoo-checkout/internal/middleware"
	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/quote"
	"github.com/iliyamo/zoo-checkout/internal/session"
)

// CheckoutHandler prices and places orders for the calling tab.
type CheckoutHandler struct {
	Sessions *session.Registry
	Log      *zap.Logger
}

type quoteRequest struct {
	BuyerName  string `json:"buyer_name"`
	BuyerEmail string `json:"buyer_email"`
	VisitDate  string `json:"visit_date"`
}

// QuoteResponse is the checkout screen's totals block.
type QuoteResponse struct {
	Tickets  []model.LineItem `json:"tickets"`
	POS      []model.LineItem `json:"pos"`
	Summary  quote.Summary    `json:"summary"`
	Identity model.Identity   `json:"identity"`
}

// Quote handles POST /v1/checkout/quote.  It always answers 200: when the
// backend cannot price the cart the summary falls back to the local
// subtotal and "quoted" is false.
func (h *CheckoutHandler) Quote(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	var req quoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	id := middleware.IdentityFrom(c)
	email := req.BuyerEmail
	if id.Authenticated && id.Email != "" {
		email = id.Email
	}

	ctx := c.Request().Context()
	snap := tab.Cart.Snapshot(ctx)
	tickets := lines.Build(model.KindTicket, snap.TicketQty, snap.TicketTypes)
	pos := lines.Build(model.KindPOS, snap.POSQty, snap.POSItems)

	q, err := tab.Quote.Refresh(ctx, quote.Input{
		BuyerName:  req.BuyerName,
		BuyerEmail: email,
		VisitDate:  req.VisitDate,
		Tickets:    tickets,
		POS:        pos,
		Bearer:     id.Token,
	})
	if errors.Is(err, quote.ErrSuperseded) {
		q = tab.Quote.Current()
	}
	return c.JSON(http.StatusOK, QuoteResponse{
		Tickets:  tickets,
		POS:      pos,
		Summary:  quote.Summarize(tickets, pos, q),
		Identity: id,
	})
}

// Submit handles POST /v1/checkout.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	var form checkout.Form
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if id := middleware.IdentityFrom(c); id.Authenticated {
		form.AccountEmail = id.Email
		form.Bearer = id.Token
	}

	conf, err := tab.Checkout.Submit(c.Request().Context(), form)
	if err != nil {
		return h.submitError(c, err)
	}
	tab.Quote.Clear()
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":     conf.OrderID,
		"lookup_token": conf.LookupToken,
		"redirect":     tab.Location(),
	})
}

func (h *CheckoutHandler) submitError(c echo.Context, err error) error {
	var verr *checkout.ValidationError
	var serr *checkout.SubmitError
	switch {
	case errors.Is(err, checkout.ErrBusy):
		return c.JSON(http.StatusConflict, echo.Map{"error": "checkout already in progress"})
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": verr.Message, "field": verr.Field})
	case errors.As(err, &serr):
		status := http.StatusBadGateway
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		return c.JSON(status, echo.Map{"error": serr.Message})
	default:
		logOf(h.Log).Error("checkout failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
}

// State handles GET /v1/checkout/state.
func (h *CheckoutHandler) State(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	st, msg := tab.Checkout.State()
	return c.JSON(http.StatusOK, echo.Map{
		"state":    st,
		"error":    msg,
		"location": tab.Location(),
	})
}

// Touch handles POST /v1/checkout/touch, sent when the buyer edits a
// field.  It drops a kept error message.
func (h *CheckoutHandler) Touch(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	tab.Checkout.Touch()
	return c.NoContent(http.StatusNoContent)
}
