package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/model"
)

// RequireRole only lets through callers whose role is one of roles.  It must
// run after JWTAuth; an anonymous caller gets 401 rather than 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AccountID(c) == 0 {
				return apperr.Unauthenticated("authentication required")
			}
			if !allowed[Role(c)] {
				return apperr.Forbidden("insufficient role")
			}
			return next(c)
		}
	}
}
