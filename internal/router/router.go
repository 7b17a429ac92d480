// Package router wires handlers and middleware onto Echo.  Everything the
// dashboard and the student portal call lives under /api; probes and
// metrics sit at the root.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/handler"
	"github.com/iliyamo/exam-seating/internal/middleware"
)

// Handlers bundles every HTTP handler the API exposes.
type Handlers struct {
	Auth       *handler.AuthHandler
	Rooms      *handler.RoomHandler
	Uploads    *handler.UploadHandler
	Allocation *handler.AllocationHandler
	Records    *handler.RecordHandler
	Status     *handler.StatusHandler
	Datasets   *handler.DatasetHandler
}

// Middleware bundles the cross-cutting pieces routes are wrapped in.
type Middleware struct {
	Auth      middleware.Authenticator
	RateLimit echo.MiddlewareFunc // login endpoints
	Cache     echo.MiddlewareFunc // cached admin reads
}

// RegisterRoutes exposes the probes and the metrics endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metrics http.Handler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAPI registers every /api route.
func RegisterAPI(e *echo.Echo, h Handlers, m Middleware) {
	if m.RateLimit == nil {
		m.RateLimit = passthrough
	}
	if m.Cache == nil {
		m.Cache = passthrough
	}
	api := e.Group("/api")
	registerLogin(api, h.Auth, m)
	registerAdmin(api, h, m)
	registerStudent(api, h.Auth, m)
}

func registerLogin(api *echo.Group, a *handler.AuthHandler, m Middleware) {
	api.POST("/admin/login/", a.AdminLogin, m.RateLimit)
	api.POST("/faculty/login/", a.FacultyLogin, m.RateLimit)
	api.POST("/student/login/", a.StudentLogin, m.RateLimit)
}

// passthrough stands in for optional middleware that is switched off.
func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
