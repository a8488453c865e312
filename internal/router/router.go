package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/config"
	"github.com/iliyamo/zoo-checkout/internal/handler"
	"github.com/iliyamo/zoo-checkout/internal/middleware"
)

// Deps bundles everything the routes need.
type Deps struct {
	Cart      *handler.CartHandler
	Catalog   *handler.CatalogHandler
	Checkout  *handler.CheckoutHandler
	JWTSecret string
	RateLimit config.RateLimitConfig
	Redis     *redis.Client // nil disables rate limiting
	Log       *zap.Logger
}

// RegisterRoutes registers routes that do not require a session.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterCart registers the tab-scoped API under /v1.  Every route runs
// the session middleware (tab and visitor IDs) and the optional identity
// middleware; pricing and ordering are rate limited per caller.
func RegisterCart(e *echo.Echo, d Deps) {
	g := e.Group("/v1")
	g.Use(middleware.Session())
	g.Use(middleware.Identity(d.JWTSecret, d.Log))

	g.GET("/cart", d.Cart.Get)
	g.DELETE("/cart", d.Cart.Clear)
	g.PUT("/cart/:kind/items/:id", d.Cart.SetQuantity)
	g.POST("/cart/:kind/metadata", d.Cart.MergeMetadata)
	g.GET("/cart/events", d.Cart.Events)

	g.GET("/catalog/:kind", d.Catalog.List)

	limited := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	g.POST("/checkout/quote", d.Checkout.Quote, limited)
	g.POST("/checkout", d.Checkout.Submit, limited)
	g.GET("/checkout/state", d.Checkout.State)
	g.POST("/checkout/touch", d.Checkout.Touch)
}

// RegisterOrders registers the confirmation view.  It is reached from the
// lookup link and needs no tab session; the lookup token authorizes it.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler) {
	e.GET("/v1/orders/:id", o.Get)
}
