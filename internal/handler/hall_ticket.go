package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/model"
)

const hallTicketSize = 256

// hallTicketPayload is the text encoded in the QR code.  Invigilators scan
// it at the door and compare with the seating chart.
func hallTicketPayload(rec model.StudentRecord) string {
	return fmt.Sprintf("REG:%s|NAME:%s|COURSE:%s|DATE:%s|SESSION:%s|HALL:%s|SEAT:%s",
		rec.RegisterNo, rec.Name, rec.CourseCode, rec.ExamDate.Format(model.DateLayout),
		rec.ExamSession, rec.HallNumber(), rec.SeatNumber())
}

// HallTicket: GET /api/student/hall-ticket.png.  Only allocated students
// get a ticket; a pending student receives 409.
func (h *AuthHandler) HallTicket(c echo.Context) error {
	p, found := middleware.PrincipalFrom(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "Authentication required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rec, err := h.Auth.Me(ctx, p)
	if err != nil {
		return failErr(c, "hall ticket", err)
	}
	if rec.Placement == nil {
		return fail(c, http.StatusConflict, "Seat not allocated yet")
	}
	png, err := qrcode.Encode(hallTicketPayload(rec), qrcode.Medium, hallTicketSize)
	if err != nil {
		return failErr(c, "hall ticket", err)
	}
	c.Response().Header().Set("Content-Disposition", `inline; filename="hall-ticket-`+rec.RegisterNo+`.png"`)
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(png)))
	return c.Blob(http.StatusOK, "image/png", png)
}
