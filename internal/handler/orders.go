package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/repository"
	"github.com/iliyamo/zoo-checkout/internal/service"
)

// OrderHandler renders the confirmation view of a placed order.
type OrderHandler struct {
	Receipts service.ReceiptStore
	Log      *zap.Logger
}

// Get handles GET /v1/orders/:id?token=...
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	rec, err := h.Receipts.GetForToken(c.Request().Context(), id, token)
	switch {
	case errors.Is(err, repository.ErrReceiptNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case err != nil:
		logOf(h.Log).Error("receipt lookup failed", zap.Uint64("order_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, rec)
}
