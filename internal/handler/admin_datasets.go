package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/model"
)

// DatasetManager is the exam session registry as the handlers see it.
type DatasetManager interface {
	List(ctx context.Context) ([]model.Dataset, error)
	Active(ctx context.Context) (model.Dataset, bool, error)
	Create(ctx context.Context, examType, description string) (model.Dataset, error)
	Switch(ctx context.Context, id uint64) (model.Dataset, error)
	Refresh(ctx context.Context, id uint64) (model.Dataset, int64, error)
	Delete(ctx context.Context, id uint64) (model.Dataset, error)
}

type DatasetHandler struct {
	Datasets DatasetManager
}

func NewDatasetHandler(d DatasetManager) *DatasetHandler { return &DatasetHandler{Datasets: d} }

type datasetView struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	ExamType        string `json:"exam_type"`
	ExamTypeDisplay string `json:"exam_type_display"`
	CreatedAt       string `json:"created_at"`
	IsActive        bool   `json:"is_active"`
	RecordCount     int    `json:"record_count"`
	Description     string `json:"description"`
}

func toDatasetView(d model.Dataset) datasetView {
	return datasetView{
		ID:              d.ID,
		Name:            d.Name,
		ExamType:        string(d.ExamType),
		ExamTypeDisplay: d.ExamType.Label(),
		CreatedAt:       d.CreatedAt.Format("2006-01-02 15:04"),
		IsActive:        d.IsActive,
		RecordCount:     d.RecordCount,
		Description:     d.Description,
	}
}

type createDatasetReq struct {
	ExamType    string `json:"exam_type"`
	Description string `json:"description"`
}

// List: GET /api/admin/datasets/
func (h *DatasetHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Datasets.List(ctx)
	if err != nil {
		return failErr(c, "list datasets", err)
	}
	out := make([]datasetView, 0, len(list))
	for _, d := range list {
		out = append(out, toDatasetView(d))
	}
	return ok(c, http.StatusOK, "", out)
}

// Active: GET /api/admin/datasets/active/
func (h *DatasetHandler) Active(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	d, found, err := h.Datasets.Active(ctx)
	if err != nil {
		return failErr(c, "active dataset", err)
	}
	if !found {
		return ok(c, http.StatusOK, "No datasets available", nil)
	}
	return ok(c, http.StatusOK, "", toDatasetView(d))
}

// Create: POST /api/admin/datasets/create/
func (h *DatasetHandler) Create(c echo.Context) error {
	var req createDatasetReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid dataset details")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	d, err := h.Datasets.Create(ctx, req.ExamType, req.Description)
	if err != nil {
		return failErr(c, "create dataset", err)
	}
	return ok(c, http.StatusCreated, fmt.Sprintf("Dataset %q created successfully", d.Name), toDatasetView(d))
}

// Switch: POST /api/admin/datasets/:id/switch/
func (h *DatasetHandler) Switch(c echo.Context) error {
	id, valid := parseID(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid dataset id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	d, err := h.Datasets.Switch(ctx, id)
	if err != nil {
		return failErr(c, "switch dataset", err)
	}
	return ok(c, http.StatusOK, "Switched to dataset: "+d.Name, toDatasetView(d))
}

// Refresh: POST /api/admin/datasets/:id/refresh/
func (h *DatasetHandler) Refresh(c echo.Context) error {
	id, valid := parseID(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid dataset id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	d, n, err := h.Datasets.Refresh(ctx, id)
	if err != nil {
		return failErr(c, "refresh dataset", err)
	}
	return ok(c, http.StatusOK, fmt.Sprintf("Deleted %d records from dataset %q", n, d.Name),
		echo.Map{"id": d.ID, "deleted": n})
}

// Delete: DELETE /api/admin/datasets/:id/delete/
func (h *DatasetHandler) Delete(c echo.Context) error {
	id, valid := parseID(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid dataset id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	d, err := h.Datasets.Delete(ctx, id)
	if err != nil {
		return failErr(c, "delete dataset", err)
	}
	return ok(c, http.StatusOK, fmt.Sprintf("Dataset %q deleted successfully", d.Name), nil)
}
