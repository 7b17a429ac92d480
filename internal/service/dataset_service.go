package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
)

const (
	maxDescriptionLen = 500
	// nameAttempts bounds the " (n)" suffixes tried when two datasets of a
	// type are created in the same minute.
	nameAttempts = 10
)

var (
	ErrDatasetNotFound = errors.New("Dataset not found")
	ErrDatasetExists   = errors.New("A dataset with this name already exists")
)

// DatasetStore is the persistence DatasetService needs.
type DatasetStore interface {
	List(ctx context.Context) ([]model.Dataset, error)
	Active(ctx context.Context) (model.Dataset, error)
	Create(ctx context.Context, d *model.Dataset) error
	Activate(ctx context.Context, id uint64) (model.Dataset, error)
	ClearStudents(ctx context.Context, id uint64) (model.Dataset, int64, error)
	Delete(ctx context.Context, id uint64) (model.Dataset, error)
}

// DatasetService manages exam sessions.  Every change touches what the
// cached views show, so each one invalidates the cache.
type DatasetService struct {
	store DatasetStore
	cache Invalidator
	now   func() time.Time
}

func NewDatasetService(store DatasetStore, cache Invalidator, now func() time.Time) *DatasetService {
	if now == nil {
		now = time.Now
	}
	return &DatasetService{store: store, cache: cache, now: now}
}

func (s *DatasetService) List(ctx context.Context) ([]model.Dataset, error) {
	return s.store.List(ctx)
}

// Active returns the active dataset; ok is false when none exists yet.
func (s *DatasetService) Active(ctx context.Context) (d model.Dataset, ok bool, err error) {
	d, err = s.store.Active(ctx)
	if errors.Is(err, repository.ErrNoActiveDataset) {
		return model.Dataset{}, false, nil
	}
	return d, err == nil, err
}

// Create adds a dataset named after its exam type and the current minute,
// and makes it active.
func (s *DatasetService) Create(ctx context.Context, examType, description string) (model.Dataset, error) {
	t, ok := model.ParseExamType(examType)
	if !ok {
		return model.Dataset{}, invalid("Invalid exam type. Use end_semester, arrear or internal.")
	}
	description = strings.TrimSpace(description)
	if len(description) > maxDescriptionLen {
		return model.Dataset{}, invalid("Description is too long")
	}

	base := t.Label() + " - " + s.now().Format("2006-01-02 15:04")
	for i := 1; i <= nameAttempts; i++ {
		d := model.Dataset{Name: base, ExamType: t, Description: description}
		if i > 1 {
			d.Name = fmt.Sprintf("%s (%d)", base, i)
		}
		err := s.store.Create(ctx, &d)
		if errors.Is(err, repository.ErrDatasetExists) {
			continue
		}
		if err != nil {
			return model.Dataset{}, err
		}
		invalidate(ctx, s.cache)
		return d, nil
	}
	return model.Dataset{}, ErrDatasetExists
}

// Switch makes id the active dataset.
func (s *DatasetService) Switch(ctx context.Context, id uint64) (model.Dataset, error) {
	d, err := s.store.Activate(ctx, id)
	if err != nil {
		return model.Dataset{}, mapDatasetErr(err)
	}
	invalidate(ctx, s.cache)
	return d, nil
}

// Refresh removes every student of the dataset, and with them their seats,
// keeping the dataset itself.
func (s *DatasetService) Refresh(ctx context.Context, id uint64) (model.Dataset, int64, error) {
	d, n, err := s.store.ClearStudents(ctx, id)
	if err != nil {
		return model.Dataset{}, 0, mapDatasetErr(err)
	}
	invalidate(ctx, s.cache)
	return d, n, nil
}

// Delete drops the dataset and its students.  Deleting the active dataset
// activates the newest one left.
func (s *DatasetService) Delete(ctx context.Context, id uint64) (model.Dataset, error) {
	d, err := s.store.Delete(ctx, id)
	if err != nil {
		return model.Dataset{}, mapDatasetErr(err)
	}
	invalidate(ctx, s.cache)
	return d, nil
}

func mapDatasetErr(err error) error {
	if errors.Is(err, repository.ErrDatasetNotFound) {
		return ErrDatasetNotFound
	}
	return err
}
