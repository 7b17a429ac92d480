package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/model"
)

// RequireRole rejects callers whose role is not listed with 403.  It must
// run after JWTAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return fail(c, http.StatusUnauthorized, "Authentication required")
			}
			if !allowed[p.Role] {
				return fail(c, http.StatusForbidden, "Forbidden")
			}
			return next(c)
		}
	}
}
