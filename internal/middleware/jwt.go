package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/utils"
)

// Identity resolves the caller's account from an optional Bearer access
// token.  Unlike a login gate it never rejects a request: a missing,
// expired or otherwise invalid token leaves the caller as a guest.  With
// an empty secret every caller is a guest.
func Identity(secret string, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ctxIdentity, model.Guest)
			auth := c.Request().Header.Get("Authorization")
			if secret == "" || !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			id, err := utils.ParseIdentity(secret, raw)
			if err != nil {
				log.Debug("treating caller as guest", zap.Error(err))
				return next(c)
			}
			c.Set(ctxIdentity, id)
			return next(c)
		}
	}
}
