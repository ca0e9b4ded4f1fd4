package middleware

// identity.go holds the context keys set by the JWT middleware and the
// accessors handlers use to read them.  Anonymous requests carry neither key.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spacehire/internal/model"
)

const (
	ctxAccountID = "account_id"
	ctxRole      = "role"
)

// SetIdentity stores the authenticated account on the request context.
func SetIdentity(c echo.Context, accountID uint64, role model.Role) {
	c.Set(ctxAccountID, accountID)
	c.Set(ctxRole, role)
}

// AccountID returns the authenticated account id, or 0 for anonymous callers.
func AccountID(c echo.Context) uint64 {
	id, _ := c.Get(ctxAccountID).(uint64)
	return id
}

// Role returns the authenticated role, or "" for anonymous callers.
func Role(c echo.Context) model.Role {
	r, _ := c.Get(ctxRole).(model.Role)
	return r
}

// rateIdentity names the caller for rate-limit keys.
func rateIdentity(c echo.Context) string {
	if id := AccountID(c); id != 0 {
		return "acct:" + formatUint(id)
	}
	return "anon"
}
