package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cucumber/godog"

	"github.com/iliyamo/zoo-checkout/internal/backend"
	"github.com/iliyamo/zoo-checkout/internal/cart"
	"github.com/iliyamo/zoo-checkout/internal/checkout"
	"github.com/iliyamo/zoo-checkout/internal/lines"
	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/notify"
	"github.com/iliyamo/zoo-checkout/internal/quote"
	"github.com/iliyamo/zoo-checkout/internal/storage"
)

// fakeZoo stands in for the zoo REST backend.
type fakeZoo struct {
	mu            sync.Mutex
	previewStatus int
	previews      int
	orders        []map[string]json.RawMessage
	orderID       int
	lookupToken   string
}

func (z *fakeZoo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	z.mu.Lock()
	defer z.mu.Unlock()
	raw, _ := io.ReadAll(r.Body)
	var body map[string]json.RawMessage
	_ = json.Unmarshal(raw, &body)
	if string(body["preview"]) == "true" {
		z.previews++
		if z.previewStatus != 0 {
			w.WriteHeader(z.previewStatus)
			_, _ = io.WriteString(w, `{"error":"pricing unavailable"}`)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true,"subtotal_cents":4000,"discount_cents":0,"total_cents":4000}`)
		return
	}
	z.orders = append(z.orders, body)
	if z.orderID == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"orders closed"}`)
		return
	}
	_, _ = fmt.Fprintf(w, `{"ok":true,"order_id":%d,"lookup_token":%q}`, z.orderID, z.lookupToken)
}

type checkoutTestContext struct {
	zoo      *fakeZoo
	srv      *httptest.Server
	store    *cart.Store
	client   *backend.Client
	catalog  []model.ItemMetadata
	rendered []model.LineItem
	nav      []string
	err      error
	summary  quote.Summary
}

func (c *checkoutTestContext) reset() {
	if c.srv != nil {
		c.srv.Close()
	}
	c.zoo = &fakeZoo{}
	c.srv = httptest.NewServer(c.zoo)
	c.client = backend.New(c.srv.URL, 0, nil)
	p := cart.NewProvider(storage.Scopes{Tab: storage.NewMemoryStore(), Shared: storage.NewMemoryStore()}, notify.NewBus(), nil)
	c.store = p.For(storage.Owner{TabID: "tab-1"})
	c.catalog = nil
	c.rendered = nil
	c.nav = nil
	c.err = nil
	c.summary = quote.Summary{}
}

func (c *checkoutTestContext) theZooSellsTicketTypeAtCents(id int, name string, cents int) error {
	var m model.ItemMetadata
	if err := json.Unmarshal([]byte(fmt.Sprintf(`{"ticket_type_id":%d,"name":%q,"price_cents":%d}`, id, name, cents)), &m); err != nil {
		return err
	}
	_, err := c.store.MergeMetadata(context.Background(), model.KindTicket, []model.ItemMetadata{m})
	return err
}

func (c *checkoutTestContext) theCartHoldsOfTicket(qty, id int) error {
	return c.store.SetQuantity(context.Background(), model.KindTicket, fmt.Sprint(id), qty)
}

func (c *checkoutTestContext) theBackendAcceptsOrdersAs(id int, token string) error {
	c.zoo.mu.Lock()
	defer c.zoo.mu.Unlock()
	c.zoo.orderID = id
	c.zoo.lookupToken = token
	return nil
}

func (c *checkoutTestContext) thePricePreviewFailsWithHTTP(status int) error {
	c.zoo.mu.Lock()
	defer c.zoo.mu.Unlock()
	c.zoo.previewStatus = status
	return nil
}

func (c *checkoutTestContext) lineItems() ([]model.LineItem, []model.LineItem) {
	snap := c.store.Snapshot(context.Background())
	return lines.Build(model.KindTicket, snap.TicketQty, snap.TicketTypes),
		lines.Build(model.KindPOS, snap.POSQty, snap.POSItems)
}

func (c *checkoutTestContext) iRenderTheCart() error {
	tickets, pos := c.lineItems()
	c.rendered = append(tickets, pos...)
	return nil
}

func (c *checkoutTestContext) iCheckOutAs(name, email, date string) error {
	nav := checkout.NavigatorFunc(func(p string) { c.nav = append(c.nav, p) })
	s := checkout.NewSubmitter(c.client, c.store, nav, nil)
	_, c.err = s.Submit(context.Background(), checkout.Form{BuyerName: name, GuestEmail: email, VisitDate: date})
	return nil
}

func (c *checkoutTestContext) iRequestAQuoteFor(email string) error {
	tickets, pos := c.lineItems()
	r := quote.NewRequester(c.client, nil)
	q, _ := r.Refresh(context.Background(), quote.Input{BuyerEmail: email, VisitDate: "2025-06-01", Tickets: tickets, POS: pos})
	c.summary = quote.Summarize(tickets, pos, q)
	return nil
}

func (c *checkoutTestContext) iClearTheCartTwice() error {
	if err := c.store.ClearAll(context.Background()); err != nil {
		return err
	}
	return c.store.ClearAll(context.Background())
}

func (c *checkoutTestContext) theCartShowsLines(n int) error {
	if len(c.rendered) != n {
		return fmt.Errorf("expected %d lines, got %d", n, len(c.rendered))
	}
	return nil
}

func (c *checkoutTestContext) lineIsXAtCentsTotalling(idx int, name string, qty, price, total int) error {
	if idx < 1 || idx > len(c.rendered) {
		return fmt.Errorf("no line %d", idx)
	}
	li := c.rendered[idx-1]
	if li.Name != name || li.Qty != qty || li.PriceCents != int64(price) || li.LineTotalCents != int64(total) {
		return fmt.Errorf("unexpected line %+v", li)
	}
	return nil
}

func (c *checkoutTestContext) theBackendReceivedItemsAndPOSItems(items, posItems string) error {
	c.zoo.mu.Lock()
	defer c.zoo.mu.Unlock()
	if len(c.zoo.orders) != 1 {
		return fmt.Errorf("expected 1 order, got %d", len(c.zoo.orders))
	}
	got := c.zoo.orders[0]
	if err := sameJSON(items, got["items"]); err != nil {
		return fmt.Errorf("items: %w", err)
	}
	if err := sameJSON(posItems, got["pos_items"]); err != nil {
		return fmt.Errorf("pos_items: %w", err)
	}
	return nil
}

func sameJSON(want string, got json.RawMessage) error {
	var a, b any
	if err := json.Unmarshal([]byte(want), &a); err != nil {
		return err
	}
	if err := json.Unmarshal(got, &b); err != nil {
		return err
	}
	if fmt.Sprint(a) != fmt.Sprint(b) {
		return fmt.Errorf("want %s, got %s", want, string(got))
	}
	return nil
}

func (c *checkoutTestContext) theBackendReceivedNoOrders() error {
	c.zoo.mu.Lock()
	defer c.zoo.mu.Unlock()
	if len(c.zoo.orders) != 0 {
		return fmt.Errorf("expected no orders, got %d", len(c.zoo.orders))
	}
	return nil
}

func (c *checkoutTestContext) theCartIsEmpty() error {
	tickets, pos := c.lineItems()
	if !lines.Empty(tickets, pos) {
		return fmt.Errorf("cart still has %d lines", len(tickets)+len(pos))
	}
	return nil
}

func (c *checkoutTestContext) theTabNavigatedTo(path string) error {
	if c.err != nil {
		return fmt.Errorf("checkout failed: %v", c.err)
	}
	if len(c.nav) != 1 || c.nav[0] != path {
		return fmt.Errorf("expected navigation to %s, got %v", path, c.nav)
	}
	return nil
}

func (c *checkoutTestContext) checkoutFailsWith(msg string) error {
	var verr *checkout.ValidationError
	if !errors.As(c.err, &verr) {
		return fmt.Errorf("expected a validation error, got %v", c.err)
	}
	if verr.Message != msg {
		return fmt.Errorf("expected %q, got %q", msg, verr.Message)
	}
	return nil
}

func (c *checkoutTestContext) theDisplayedTotalIsCentsWithNoDiscount(total int) error {
	if c.summary.TotalCents != int64(total) || c.summary.ShowDiscount || c.summary.DiscountCents != 0 {
		return fmt.Errorf("unexpected summary %+v", c.summary)
	}
	return nil
}

func (c *checkoutTestContext) noQuoteWasRequested() error {
	c.zoo.mu.Lock()
	defer c.zoo.mu.Unlock()
	if c.zoo.previews != 0 {
		return fmt.Errorf("expected no preview calls, got %d", c.zoo.previews)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc.srv != nil {
			tc.srv.Close()
			tc.srv = nil
		}
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the zoo sells ticket type (\d+) "([^"]*)" at (\d+) cents$`, tc.theZooSellsTicketTypeAtCents)
	ctx.Step(`^the cart holds (\d+) of ticket (\d+)$`, tc.theCartHoldsOfTicket)
	ctx.Step(`^the backend accepts orders as order (\d+) with lookup token "([^"]*)"$`, tc.theBackendAcceptsOrdersAs)
	ctx.Step(`^the price preview fails with HTTP (\d+)$`, tc.thePricePreviewFailsWithHTTP)

	// When steps
	ctx.Step(`^I render the cart$`, tc.iRenderTheCart)
	ctx.Step(`^I check out as "([^"]*)" with email "([^"]*)" for "([^"]*)"$`, tc.iCheckOutAs)
	ctx.Step(`^I request a quote for "([^"]*)"$`, tc.iRequestAQuoteFor)
	ctx.Step(`^I clear the cart twice$`, tc.iClearTheCartTwice)

	// Then steps
	ctx.Step(`^the cart shows (\d+) lines?$`, tc.theCartShowsLines)
	ctx.Step(`^line (\d+) is "([^"]*)" x (\d+) at (\d+) cents totalling (\d+) cents$`, tc.lineIsXAtCentsTotalling)
	ctx.Step(`^the backend received items (.+) and pos items (.+)$`, tc.theBackendReceivedItemsAndPOSItems)
	ctx.Step(`^the backend received no orders$`, tc.theBackendReceivedNoOrders)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the tab navigated to "([^"]*)"$`, tc.theTabNavigatedTo)
	ctx.Step(`^checkout fails with "([^"]*)"$`, tc.checkoutFailsWith)
	ctx.Step(`^the displayed total is (\d+) cents with no discount$`, tc.theDisplayedTotalIsCentsWithNoDiscount)
	ctx.Step(`^no quote was requested$`, tc.noQuoteWasRequested)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
