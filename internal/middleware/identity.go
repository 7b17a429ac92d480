package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/service"
)

// principalKey is where JWTAuth leaves the authenticated caller.
const principalKey = "principal"

// PrincipalFrom returns the caller stored by JWTAuth.
func PrincipalFrom(c echo.Context) (service.Principal, bool) {
	p, ok := c.Get(principalKey).(service.Principal)
	return p, ok
}

// subject identifies the caller for rate limit keys; "anon" before login.
func subject(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok && p.Subject != "" {
		return p.Role.String() + "/" + p.Subject
	}
	return "anon"
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}
