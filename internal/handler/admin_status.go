package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/service"
)

// StatusReporter builds the dashboard totals.
type StatusReporter interface {
	Report(ctx context.Context) (service.Status, error)
}

type StatusHandler struct {
	Status StatusReporter
}

func NewStatusHandler(s StatusReporter) *StatusHandler { return &StatusHandler{Status: s} }

// Get: GET /api/admin/status/
func (h *StatusHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	st, err := h.Status.Report(ctx)
	if err != nil {
		return failErr(c, "status", err)
	}
	return ok(c, http.StatusOK, "", toStatusView(st))
}
