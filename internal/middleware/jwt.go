package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/service"
)

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (service.Principal, error)
}

// JWTAuth requires "Authorization: Bearer <token>" whose session is still
// active, and stores the principal for RequireRole and the handlers.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return fail(c, http.StatusUnauthorized, "Authentication required")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			p, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					return fail(c, http.StatusUnauthorized, "Invalid or expired session")
				}
				log.Printf("auth: session lookup failed: %v", err)
				return fail(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}
