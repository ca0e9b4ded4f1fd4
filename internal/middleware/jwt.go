package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"strconv"
	"strings" // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the token's account id and role on the request context.  The
// provided secret must match the one used when issuing tokens.  Requests
// without a valid token are rejected with an UnauthenticatedError, which the
// HTTP error handler renders as 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return apperr.Unauthenticated("missing bearer token")
			}
			if err := authenticate(c, secret, raw); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalJWT is JWTAuth for routes that also serve anonymous callers, such
// as booking admission.  A missing header passes through anonymously, but a
// header carrying an invalid token is still rejected so that an expired
// session is never silently downgraded to a guest booking.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return next(c)
			}
			if err := authenticate(c, secret, raw); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

func authenticate(c echo.Context, secret, raw string) error {
	id, role, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return apperr.Unauthenticated("invalid or expired token")
	}
	SetIdentity(c, id, role)
	return nil
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
