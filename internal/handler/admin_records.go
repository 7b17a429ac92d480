package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/service"
)

// RecordManager is admin CRUD over students.
type RecordManager interface {
	List(ctx context.Context) ([]model.StudentRecord, error)
	Get(ctx context.Context, id uint64) (model.StudentRecord, error)
	Create(ctx context.Context, in service.StudentInput) (model.StudentRecord, error)
	Update(ctx context.Context, id uint64, in service.StudentInput) (model.StudentRecord, error)
	Delete(ctx context.Context, id uint64) error
}

type RecordHandler struct {
	Records RecordManager
}

func NewRecordHandler(r RecordManager) *RecordHandler { return &RecordHandler{Records: r} }

type recordReq struct {
	RegisterNo  string `json:"register_no"`
	StudentName string `json:"student_name"`
	DateOfBirth string `json:"date_of_birth"`
	CourseCode  string `json:"course_code"`
	CourseTitle string `json:"course_title"`
	ExamDate    string `json:"exam_date"`
	ExamSession string `json:"exam_session"`
}

func (r recordReq) input() service.StudentInput {
	return service.StudentInput{
		RegisterNo: r.RegisterNo, Name: r.StudentName, DateOfBirth: r.DateOfBirth,
		CourseCode: r.CourseCode, CourseTitle: r.CourseTitle, ExamDate: r.ExamDate, ExamSession: r.ExamSession,
	}
}

// List: GET /api/admin/records/
func (h *RecordHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	recs, err := h.Records.List(ctx)
	if err != nil {
		return failErr(c, "list records", err)
	}
	out := make([]recordView, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecordView(r))
	}
	if len(out) == 0 {
		return ok(c, http.StatusOK, "No records found", out)
	}
	return ok(c, http.StatusOK, "", out)
}

// Get: GET /api/admin/records/:id/
func (h *RecordHandler) Get(c echo.Context) error {
	id, valid := parseID(c)
	if !valid {
		return fail(c, http.StatusNotFound, "Record not found")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rec, err := h.Records.Get(ctx, id)
	if err != nil {
		return failErr(c, "get record", err)
	}
	return ok(c, http.StatusOK, "", toRecordView(rec))
}

// Create: POST /api/admin/records/create/
func (h *RecordHandler) Create(c echo.Context) error {
	var req recordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON data")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rec, err := h.Records.Create(ctx, req.input())
	if err != nil {
		return failErr(c, "create record", err)
	}
	return ok(c, http.StatusCreated, "Record created successfully", toRecordView(rec))
}

// Update: PUT /api/admin/records/:id/update/
func (h *RecordHandler) Update(c echo.Context) error {
	id, valid := parseID(c)
	if !valid {
		return fail(c, http.StatusNotFound, "Record not found")
	}
	var req recordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON data")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rec, err := h.Records.Update(ctx, id, req.input())
	if err != nil {
		return failErr(c, "update record", err)
	}
	return ok(c, http.StatusOK, "Record updated successfully", toRecordView(rec))
}

// Delete: DELETE /api/admin/records/:id/delete/
func (h *RecordHandler) Delete(c echo.Context) error {
	id, valid := parseID(c)
	if !valid {
		return fail(c, http.StatusNotFound, "Record not found")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Records.Delete(ctx, id); err != nil {
		return failErr(c, "delete record", err)
	}
	return ok(c, http.StatusOK, "Record deleted successfully", nil)
}
