package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/roster"
	"github.com/iliyamo/exam-seating/internal/service"
)

// RosterIngester stores an uploaded roster.
type RosterIngester interface {
	Ingest(ctx context.Context, filename string, r io.Reader) (service.IngestResult, error)
}

// SeatingImporter applies an uploaded seating plan.
type SeatingImporter interface {
	ImportSeating(ctx context.Context, filename string, r io.Reader) (service.SeatingImportResult, error)
}

// UploadHandler accepts .csv and .xlsx uploads in the multipart field "file".
type UploadHandler struct {
	Roster   RosterIngester
	Seating  SeatingImporter
	MaxBytes int64
}

func NewUploadHandler(roster RosterIngester, seating SeatingImporter, maxBytes int64) *UploadHandler {
	return &UploadHandler{Roster: roster, Seating: seating, MaxBytes: maxBytes}
}

// openUpload returns the uploaded file and its name, or writes the failure
// response itself.
func (h *UploadHandler) openUpload(c echo.Context) (multipart.File, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", fail(c, http.StatusBadRequest, "No file uploaded")
	}
	if _, err := roster.FormatOf(fh.Filename); err != nil {
		return nil, "", fail(c, http.StatusBadRequest, "File type not supported. Please upload a CSV or Excel (.xlsx) file.")
	}
	if h.MaxBytes > 0 && fh.Size > h.MaxBytes {
		return nil, "", fail(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", fail(c, http.StatusBadRequest, "Could not read uploaded file")
	}
	return f, fh.Filename, nil
}

// UploadRoster: POST /api/admin/upload/
func (h *UploadHandler) UploadRoster(c echo.Context) error {
	f, name, err := h.openUpload(c)
	if f == nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 4*requestTimeout)
	defer cancel()
	res, err := h.Roster.Ingest(ctx, name, f)
	if err != nil {
		return failErr(c, "upload roster", err)
	}
	return ok(c, http.StatusOK, res.Message(), res)
}

// UploadSeating: POST /api/admin/upload-seating/
func (h *UploadHandler) UploadSeating(c echo.Context) error {
	f, name, err := h.openUpload(c)
	if f == nil {
		return err
	}
	defer f.Close()

	res, err := h.Seating.ImportSeating(c.Request().Context(), name, f)
	if err != nil {
		return failErr(c, "upload seating", err)
	}
	return ok(c, http.StatusOK, "Seating imported", res)
}
