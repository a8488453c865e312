// Package backend is the JSON-over-HTTP client for the zoo's REST API.  The
// backend owns pricing, orders and validation; this client only shapes
// requests and decodes responses.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/lines"
	"github.com/iliyamo/zoo-checkout/internal/model"
)

const (
	checkoutPath    = "/api/public/checkout"
	ticketTypesPath = "/api/public/ticket-types"
	posItemsPath    = "/api/public/pos-items"
)

// ErrMalformed is returned when a 2xx response body cannot be decoded.
var ErrMalformed = errors.New("backend: malformed response")

// APIError is a non-success answer from the backend.  Message is the
// backend's own error text, suitable for showing to the buyer verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d: %s", e.Status, e.Message)
}

// CheckoutRequest is the body of POST /api/public/checkout.
type CheckoutRequest struct {
	BuyerName  string             `json:"buyer_name"`
	BuyerEmail string             `json:"buyer_email"`
	VisitDate  string             `json:"visit_date"`
	Items      []lines.TicketItem `json:"items"`
	POSItems   []lines.POSItem    `json:"pos_items"`
	Preview    bool               `json:"preview,omitempty"`
}

type previewResponse struct {
	OK                   bool    `json:"ok"`
	SubtotalCents        *int64  `json:"subtotal_cents"`
	DiscountCents        int64   `json:"discount_cents"`
	DiscountPct          float64 `json:"discount_pct"`
	TotalCents           *int64  `json:"total_cents"`
	MembershipTierAtSale *string `json:"membership_tier_at_sale"`
	Error                string  `json:"error"`
}

type commitResponse struct {
	OK          bool            `json:"ok"`
	OrderID     json.Number     `json:"order_id"`
	LookupToken string          `json:"lookup_token"`
	Order       json.RawMessage `json:"order"`
	Error       string          `json:"error"`
}

// Client talks to one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New returns a Client.  timeout <= 0 leaves the request duration to the
// caller's context and the transport's defaults.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, log: log}
}

// WithHTTPClient swaps the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Preview asks the backend to price req without placing an order.
func (c *Client) Preview(ctx context.Context, bearer string, req CheckoutRequest) (model.Quote, error) {
	req.Preview = true
	body, err := c.do(ctx, http.MethodPost, checkoutPath, bearer, req)
	if err != nil {
		return model.Quote{}, err
	}
	var resp previewResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !resp.OK {
		return model.Quote{}, &APIError{Status: http.StatusOK, Message: messageOr(resp.Error, "quote unavailable")}
	}
	if resp.SubtotalCents == nil || resp.TotalCents == nil {
		return model.Quote{}, fmt.Errorf("%w: missing totals", ErrMalformed)
	}
	q := model.Quote{
		SubtotalCents: *resp.SubtotalCents,
		DiscountCents: resp.DiscountCents,
		DiscountPct:   resp.DiscountPct,
		TotalCents:    *resp.TotalCents,
	}
	if resp.MembershipTierAtSale != nil {
		q.MembershipTierAtSale = *resp.MembershipTierAtSale
	}
	return q, nil
}

// Commit places the order described by req.
func (c *Client) Commit(ctx context.Context, bearer string, req CheckoutRequest) (model.Confirmation, error) {
	req.Preview = false
	body, err := c.do(ctx, http.MethodPost, checkoutPath, bearer, req)
	if err != nil {
		return model.Confirmation{}, err
	}
	var resp commitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Confirmation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !resp.OK {
		return model.Confirmation{}, &APIError{Status: http.StatusOK, Message: messageOr(resp.Error, "checkout failed")}
	}
	id, err := strconv.ParseUint(resp.OrderID.String(), 10, 64)
	if err != nil || id == 0 {
		return model.Confirmation{}, fmt.Errorf("%w: order_id %q", ErrMalformed, resp.OrderID.String())
	}
	return model.Confirmation{OrderID: id, LookupToken: resp.LookupToken}, nil
}

// Catalog fetches the catalog for kind.
func (c *Client) Catalog(ctx context.Context, kind model.Kind) ([]model.ItemMetadata, error) {
	path := ticketTypesPath
	if kind == model.KindPOS {
		path = posItemsPath
	}
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	return DecodeCatalog(body)
}

// DecodeCatalog accepts either a bare array or an {"items": [...]} envelope.
func DecodeCatalog(body []byte) ([]model.ItemMetadata, error) {
	trimmed := bytes.TrimSpace(body)
	var items []model.ItemMetadata
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return items, nil
	}
	var env struct {
		Items []model.ItemMetadata `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Items == nil {
		env.Items = []model.ItemMetadata{}
	}
	return env.Items, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, payload any) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		bs, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("backend: encode request: %w", err)
		}
		rd = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Debug("backend error", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}
	return body, nil
}

// errorMessage pulls the backend's "error" (or "message") string out of an
// error body, falling back to the status text.
func errorMessage(status int, body []byte) string {
	var env struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		var s string
		if len(env.Error) > 0 && json.Unmarshal(env.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if len(env.Error) > 0 && json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		if env.Message != "" {
			return env.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

func messageOr(msg, def string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return def
}
