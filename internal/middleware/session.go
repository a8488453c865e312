package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zoo-checkout/internal/storage"
)

// Header names carrying the tab and visitor identifiers.
const (
	HeaderTabID     = "X-Tab-ID"
	HeaderVisitorID = "X-Visitor-ID"
)

// IDs are stored as the cart_kv owner column, VARCHAR(64).
var sessionID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Session resolves which tab and visitor a request belongs to.  A missing
// X-Tab-ID gets a fresh UUID; a missing X-Visitor-ID defaults to the tab
// ID.  Both values are echoed in the response so the browser can keep them.
// Malformed identifiers are rejected with 400.  A request that sent neither
// header is marked anonymous so the rate limiter keys it by client IP.
func Session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			tab := req.Header.Get(HeaderTabID)
			anon := tab == "" && req.Header.Get(HeaderVisitorID) == ""
			if tab == "" {
				tab = uuid.NewString()
			}
			visitor := req.Header.Get(HeaderVisitorID)
			if visitor == "" {
				visitor = tab
			}
			if !sessionID.MatchString(tab) || !sessionID.MatchString(visitor) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tab or visitor id"})
			}
			c.Set(ctxOwner, storage.Owner{TabID: tab, VisitorID: visitor})
			c.Set(ctxAnonymous, anon)
			h := c.Response().Header()
			h.Set(HeaderTabID, tab)
			h.Set(HeaderVisitorID, visitor)
			return next(c)
		}
	}
}
