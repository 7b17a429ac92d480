package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/allocation"
)

// SeatAllocator triggers allocation runs.
type SeatAllocator interface {
	Generate(ctx context.Context) (allocation.Result, error)
	Refresh(ctx context.Context) (allocation.Result, error)
}

type AllocationHandler struct {
	Alloc SeatAllocator
}

func NewAllocationHandler(a SeatAllocator) *AllocationHandler { return &AllocationHandler{Alloc: a} }

// Generate: POST /api/admin/generate-seating/
func (h *AllocationHandler) Generate(c echo.Context) error {
	res, err := h.Alloc.Generate(c.Request().Context())
	return h.respond(c, res, err)
}

// Refresh: POST /api/admin/refresh-allocation/
func (h *AllocationHandler) Refresh(c echo.Context) error {
	res, err := h.Alloc.Refresh(c.Request().Context())
	return h.respond(c, res, err)
}

// respond keeps the run result in the body on failure so the dashboard can
// show total_allocated 0 next to the error.
func (h *AllocationHandler) respond(c echo.Context, res allocation.Result, err error) error {
	if err == nil {
		return ok(c, http.StatusOK, res.Message(), toResultView(res))
	}
	rec := echo.Map{"success": false, "error": res.Message(), "data": toResultView(res)}
	switch {
	case errors.Is(err, allocation.ErrNoAvailableRooms), errors.Is(err, allocation.ErrNoActiveDataset):
		return c.JSON(http.StatusBadRequest, rec)
	case errors.Is(err, allocation.ErrAllocationInProgress):
		return c.JSON(http.StatusConflict, rec)
	case errors.Is(err, allocation.ErrRunTimeout), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, rec)
	}
	return c.JSON(http.StatusInternalServerError, rec)
}
