package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/model"
)

// registerAdmin registers the dashboard endpoints.  Faculty may read;
// only admins may change rooms, datasets, the roster or allocations.
func registerAdmin(api *echo.Group, h Handlers, m Middleware) {
	staff := api.Group("/admin",
		middleware.JWTAuth(m.Auth),
		middleware.RequireRole(model.RoleAdmin, model.RoleFaculty),
	)
	admin := middleware.RequireRole(model.RoleAdmin)

	staff.POST("/logout/", h.Auth.Logout)

	// ---- Rooms ----
	staff.GET("/rooms/", h.Rooms.List, m.Cache)
	staff.POST("/rooms/add/", h.Rooms.Add, admin)
	staff.POST("/rooms/:id/toggle/", h.Rooms.Toggle, admin)

	// ---- Datasets ----
	staff.GET("/datasets/", h.Datasets.List)
	staff.GET("/datasets/active/", h.Datasets.Active)
	staff.POST("/datasets/create/", h.Datasets.Create, admin)
	staff.POST("/datasets/:id/switch/", h.Datasets.Switch, admin)
	staff.POST("/datasets/:id/refresh/", h.Datasets.Refresh, admin)
	staff.DELETE("/datasets/:id/delete/", h.Datasets.Delete, admin)

	// ---- Uploads ----
	staff.POST("/upload/", h.Uploads.UploadRoster, admin)
	staff.POST("/upload-seating/", h.Uploads.UploadSeating, admin)

	// ---- Allocation ----
	staff.POST("/generate-seating/", h.Allocation.Generate, admin)
	staff.POST("/refresh-allocation/", h.Allocation.Refresh, admin)

	// ---- Records ----
	staff.GET("/records/", h.Records.List)
	staff.POST("/records/create/", h.Records.Create, admin)
	staff.GET("/records/:id/", h.Records.Get)
	staff.PUT("/records/:id/update/", h.Records.Update, admin)
	staff.DELETE("/records/:id/delete/", h.Records.Delete, admin)

	// ---- Status ----
	staff.GET("/status/", h.Status.Get, m.Cache)
}
