package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/iliyamo/exam-seating/internal/allocation"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/service"
)

type fakeDatasets struct {
	list      []model.Dataset
	gotType   string
	createErr error
}

func (f *fakeDatasets) List(context.Context) ([]model.Dataset, error) { return f.list, nil }

func (f *fakeDatasets) Active(context.Context) (model.Dataset, bool, error) {
	for _, d := range f.list {
		if d.IsActive {
			return d, true, nil
		}
	}
	return model.Dataset{}, false, nil
}

func (f *fakeDatasets) Create(_ context.Context, examType, description string) (model.Dataset, error) {
	f.gotType = examType
	if f.createErr != nil {
		return model.Dataset{}, f.createErr
	}
	d := model.Dataset{ID: 2, Name: "Arrear - 2025-12-15 09:30", ExamType: model.ExamArrear,
		Description: description, IsActive: true, CreatedAt: time.Date(2025, 12, 15, 9, 30, 0, 0, time.UTC)}
	f.list = append(f.list, d)
	return d, nil
}

func (f *fakeDatasets) get(id uint64) (model.Dataset, error) {
	for _, d := range f.list {
		if d.ID == id {
			return d, nil
		}
	}
	return model.Dataset{}, service.ErrDatasetNotFound
}

func (f *fakeDatasets) Switch(_ context.Context, id uint64) (model.Dataset, error) { return f.get(id) }

func (f *fakeDatasets) Refresh(_ context.Context, id uint64) (model.Dataset, int64, error) {
	d, err := f.get(id)
	return d, int64(d.RecordCount), err
}

func (f *fakeDatasets) Delete(_ context.Context, id uint64) (model.Dataset, error) { return f.get(id) }

func TestDatasetHandlers(t *testing.T) {
	store := &fakeDatasets{list: []model.Dataset{{
		ID: 1, Name: "End Semester - Default", ExamType: model.ExamEndSemester, RecordCount: 40,
		CreatedAt: time.Date(2025, 11, 2, 8, 5, 0, 0, time.UTC),
	}}}
	h := NewDatasetHandler(store)

	c, rec := jsonCtx(http.MethodGet, "/api/admin/datasets/active/", "")
	_ = h.Active(c)
	if env := decode(t, rec); rec.Code != http.StatusOK || env.Message != "No datasets available" || len(env.Data) != 0 {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}

	c, rec = jsonCtx(http.MethodPost, "/api/admin/datasets/create/", `{"exam_type":"arrear","description":"resits"}`)
	_ = h.Create(c)
	env := decode(t, rec)
	if rec.Code != http.StatusCreated || env.Message != `Dataset "Arrear - 2025-12-15 09:30" created successfully` || store.gotType != "arrear" {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}
	var created datasetView
	_ = json.Unmarshal(env.Data, &created)
	if created.ExamTypeDisplay != "Arrear" || created.CreatedAt != "2025-12-15 09:30" || !created.IsActive || created.Description != "resits" {
		t.Fatalf("unexpected view %+v", created)
	}

	c, rec = jsonCtx(http.MethodGet, "/api/admin/datasets/", "")
	_ = h.List(c)
	var list []datasetView
	_ = json.Unmarshal(decode(t, rec).Data, &list)
	if len(list) != 2 || list[0].RecordCount != 40 || list[0].ExamType != "end_semester" {
		t.Fatalf("unexpected list %+v", list)
	}

	c, rec = jsonCtx(http.MethodPost, "/api/admin/datasets/1/switch/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	_ = h.Switch(c)
	if env := decode(t, rec); rec.Code != http.StatusOK || env.Message != "Switched to dataset: End Semester - Default" {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}

	c, rec = jsonCtx(http.MethodPost, "/api/admin/datasets/1/refresh/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	_ = h.Refresh(c)
	if env := decode(t, rec); rec.Code != http.StatusOK || env.Message != `Deleted 40 records from dataset "End Semester - Default"` {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}

	c, rec = jsonCtx(http.MethodDelete, "/api/admin/datasets/9/delete/", "")
	c.SetParamNames("id")
	c.SetParamValues("9")
	_ = h.Delete(c)
	if env := decode(t, rec); rec.Code != http.StatusNotFound || env.Error != "Dataset not found" {
		t.Fatalf("expected 404, got %d %+v", rec.Code, env)
	}

	c, rec = jsonCtx(http.MethodDelete, "/api/admin/datasets/x/delete/", "")
	c.SetParamNames("id")
	c.SetParamValues("x")
	_ = h.Delete(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}

	c, rec = jsonCtx(http.MethodDelete, "/api/admin/datasets/2/delete/", "")
	c.SetParamNames("id")
	c.SetParamValues("2")
	_ = h.Delete(c)
	if env := decode(t, rec); rec.Code != http.StatusOK || env.Message != `Dataset "Arrear - 2025-12-15 09:30" deleted successfully` {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}

	store.createErr = &service.ValidationError{Message: "Invalid exam type. Use end_semester, arrear or internal."}
	c, rec = jsonCtx(http.MethodPost, "/api/admin/datasets/create/", `{"exam_type":"resit"}`)
	_ = h.Create(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFailErrWithoutDataset(t *testing.T) {
	c, rec := jsonCtx(http.MethodPost, "/", "")
	_ = failErr(c, "test", allocation.ErrNoActiveDataset)
	if env := decode(t, rec); rec.Code != http.StatusBadRequest || env.Error != allocation.ErrNoActiveDataset.Error() {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}

	c, rec = jsonCtx(http.MethodPost, "/", "")
	_ = failErr(c, "test", service.ErrDatasetExists)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestGenerateWithoutDataset(t *testing.T) {
	h := NewAllocationHandler(&fakeAllocator{
		res: allocation.Result{Mode: model.RunGenerate, Error: allocation.ErrNoActiveDataset.Error()},
		err: allocation.ErrNoActiveDataset,
	})
	c, rec := jsonCtx(http.MethodPost, "/api/admin/generate-seating/", "")
	_ = h.Generate(c)
	if env := decode(t, rec); rec.Code != http.StatusBadRequest || env.Error != allocation.ErrNoActiveDataset.Error() {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}
}
