package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/handler"
	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/model"
)

// registerStudent registers the student portal behind a STUDENT session.
func registerStudent(api *echo.Group, a *handler.AuthHandler, m Middleware) {
	g := api.Group("/student",
		middleware.JWTAuth(m.Auth),
		middleware.RequireRole(model.RoleStudent),
	)
	g.GET("/me/", a.Me)
	g.GET("/hall-ticket.png", a.HallTicket)
	g.POST("/logout/", a.Logout)
}
