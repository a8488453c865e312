package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/backend"
	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/session"
)

// CatalogHandler proxies the backend catalog and records what the visitor
// has browsed into their cart metadata.
type CatalogHandler struct {
	Sessions *session.Registry
	Catalog  backend.CatalogSource
	Log      *zap.Logger
}

// List handles GET /v1/catalog/:kind.
func (h *CatalogHandler) List(c echo.Context) error {
	tab, err := tabFor(c, h.Sessions)
	if tab == nil {
		return err
	}
	kind, ok := kindParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown item kind"})
	}
	ctx := c.Request().Context()
	items, err := h.Catalog.Catalog(ctx, kind)
	if err != nil {
		logOf(h.Log).Warn("catalog fetch failed", zap.String("kind", string(kind)), zap.Error(err))
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": apiErr.Message})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog unavailable"})
	}
	// Browsing is what fills in names and prices for the cart.
	if _, err := tab.Cart.MergeMetadata(ctx, kind, items); err != nil {
		logOf(h.Log).Warn("catalog metadata merge failed", zap.Error(err))
	}
	if items == nil {
		items = []model.ItemMetadata{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
