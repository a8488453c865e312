package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/middleware"
	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/session"
)

// tabFor returns the session of the calling tab.  The session middleware
// guarantees an owner on /v1 routes; the check covers misrouted handlers.
func tabFor(c echo.Context, reg *session.Registry) (*session.Tab, error) {
	owner, ok := middleware.OwnerFrom(c)
	if !ok {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tab id"})
	}
	return reg.Tab(owner), nil
}

// kindParam parses the :kind path segment.
func kindParam(c echo.Context) (model.Kind, bool) {
	return model.ParseKind(c.Param("kind"))
}

func logOf(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
