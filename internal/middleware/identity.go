package middleware

// identity.go holds the context keys shared by the session and identity
// middleware and the accessors handlers use to read them back.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zoo-checkout/internal/model"
	"github.com/iliyamo/zoo-checkout/internal/storage"
)

const (
	ctxOwner     = "cart_owner"
	ctxIdentity  = "identity"
	ctxAnonymous = "anonymous_session"
)

// OwnerFrom returns the tab/visitor pair stored by Session.
func OwnerFrom(c echo.Context) (storage.Owner, bool) {
	o, ok := c.Get(ctxOwner).(storage.Owner)
	return o, ok && o.TabID != ""
}

// IdentityFrom returns the identity stored by Identity, or Guest.
func IdentityFrom(c echo.Context) model.Identity {
	if id, ok := c.Get(ctxIdentity).(model.Identity); ok {
		return id
	}
	return model.Guest
}

// userID returns a stable identifier for the caller: the member subject
// when signed in, otherwise the visitor ID, otherwise "guest".  Sessions
// minted for a header-less request have no stable ID and count as guest.
func userID(c echo.Context) string {
	if id := IdentityFrom(c); id.Authenticated && id.Subject != "" {
		return "member:" + id.Subject
	}
	if anon, _ := c.Get(ctxAnonymous).(bool); anon {
		return "guest"
	}
	if o, ok := OwnerFrom(c); ok {
		return "visitor:" + o.VisitorID
	}
	return "guest"
}
