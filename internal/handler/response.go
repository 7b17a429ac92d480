package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/allocation"
	"github.com/iliyamo/exam-seating/internal/service"
)

// requestTimeout bounds the storage work of an ordinary request.
// Allocation runs carry their own timeout inside the engine.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func ok(c echo.Context, status int, message string, data any) error {
	body := echo.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// failErr maps a service error onto the status taxonomy.  Messages of known
// errors are shown as is; anything else is logged and hidden.
func failErr(c echo.Context, op string, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return fail(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return fail(c, http.StatusUnauthorized, "Invalid or expired session")
	case errors.Is(err, service.ErrInvalidRoom), errors.Is(err, allocation.ErrNoAvailableRooms),
		errors.Is(err, allocation.ErrNoActiveDataset):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRoomMissing), errors.Is(err, service.ErrRecordNotFound),
		errors.Is(err, service.ErrDatasetNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRoomExists), errors.Is(err, service.ErrRecordExists),
		errors.Is(err, service.ErrDatasetExists), errors.Is(err, allocation.ErrAllocationInProgress):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, allocation.ErrRunTimeout), errors.Is(err, context.DeadlineExceeded):
		return fail(c, http.StatusServiceUnavailable, "Service temporarily unavailable, nothing was changed")
	}
	log.Printf("%s: %v", op, err)
	return fail(c, http.StatusInternalServerError, "Internal server error")
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
