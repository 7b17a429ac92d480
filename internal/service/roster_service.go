package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iliyamo/exam-seating/internal/metrics"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/roster"
)

// StudentUpserter writes a batch of students into the active dataset
// atomically and names that dataset.
type StudentUpserter interface {
	UpsertStudents(ctx context.Context, students []model.Student) (dataset string, created, updated int, err error)
}

// IngestResult reports a roster upload.  Accepted rows were stored (created,
// updated or already identical); rejected rows are listed in Errors.
type IngestResult struct {
	Dataset  string           `json:"dataset,omitempty"`
	Accepted int              `json:"accepted"`
	Rejected int              `json:"rejected"`
	Created  int              `json:"created"`
	Updated  int              `json:"updated"`
	Errors   []model.RowError `json:"errors"`
}

// Message summarises the upload for the admin dashboard.
func (r IngestResult) Message() string {
	if r.Rejected == 0 {
		return fmt.Sprintf("Imported %d students", r.Accepted)
	}
	return fmt.Sprintf("Imported %d students; %d rows rejected", r.Accepted, r.Rejected)
}

// RosterService turns uploaded roster files into stored students.
type RosterService struct {
	store   StudentUpserter
	cache   Invalidator
	metrics *metrics.Metrics
}

func NewRosterService(store StudentUpserter, cache Invalidator, m *metrics.Metrics) *RosterService {
	return &RosterService{store: store, cache: cache, metrics: m}
}

// Ingest parses r, a .csv or .xlsx file named filename, and upserts every
// valid row by register_no into the active dataset in one transaction.  A
// file of another type or missing required columns is a ValidationError; a
// storage failure rejects the whole upload.
func (s *RosterService) Ingest(ctx context.Context, filename string, r io.Reader) (IngestResult, error) {
	src, err := openUpload(r, filename)
	if err != nil {
		return IngestResult{}, err
	}
	defer src.Close()
	parsed, err := roster.ParseStudentRows(src)
	if err != nil {
		return IngestResult{}, uploadError(err)
	}
	res := IngestResult{
		Accepted: len(parsed.Students),
		Rejected: len(parsed.Errors),
		Errors:   parsed.Errors,
	}
	if res.Errors == nil {
		res.Errors = []model.RowError{}
	}
	if len(parsed.Students) > 0 {
		dataset, created, updated, err := s.store.UpsertStudents(ctx, parsed.Students)
		if err != nil {
			return IngestResult{}, fmt.Errorf("store roster: %w", err)
		}
		res.Dataset, res.Created, res.Updated = dataset, created, updated
		invalidate(ctx, s.cache)
	}
	s.metrics.ObserveUpload("roster", res.Accepted, res.Rejected)
	return res, nil
}

// openUpload picks the row reader for the file type.  Unreadable workbooks
// and unknown types are the client's mistake.
func openUpload(r io.Reader, filename string) (roster.RowSource, error) {
	src, err := roster.Open(r, filename)
	switch {
	case errors.Is(err, roster.ErrUnsupportedFormat):
		return nil, invalid("File type not supported. Please upload a CSV or Excel (.xlsx) file.")
	case errors.Is(err, roster.ErrEmptyFile):
		return nil, invalid("Uploaded file is empty")
	case err != nil:
		return nil, invalid("Could not read uploaded file")
	}
	return src, nil
}

// uploadError maps parser failures that concern the whole file to
// ValidationErrors and passes I/O errors through.
func uploadError(err error) error {
	var missing *roster.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return &ValidationError{Message: "Missing required columns: " + strings.Join(missing.Columns, ", ")}
	case errors.Is(err, roster.ErrEmptyFile):
		return invalid("Uploaded file is empty")
	}
	return err
}
