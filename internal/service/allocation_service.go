package service

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/iliyamo/exam-seating/internal/allocation"
	"github.com/iliyamo/exam-seating/internal/metrics"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/queue"
	"github.com/iliyamo/exam-seating/internal/roster"
)

// Allocator runs seat allocation.  *allocation.Engine implements it.
type Allocator interface {
	Generate(ctx context.Context) (allocation.Result, error)
	Refresh(ctx context.Context) (allocation.Result, error)
	Import(ctx context.Context, reqs []allocation.SeatRequest) (allocation.ImportResult, error)
}

// EventPublisher delivers allocation events to the broker.
type EventPublisher interface {
	PublishAllocationCompleted(ctx context.Context, ev queue.AllocationCompletedEvent) error
}

// SeatingImportResult reports a seating upload.  Parse errors and rows the
// engine refused are merged and ordered by row.
type SeatingImportResult struct {
	RunID    string              `json:"run_id"`
	Dataset  string              `json:"dataset,omitempty"`
	Applied  int                 `json:"applied"`
	Rejected int                 `json:"rejected"`
	Errors   []model.RowError    `json:"errors"`
	Placed   []allocation.Placed `json:"-"`
}

// AllocationService wraps the engine with the side effects of a committed
// run: cache invalidation, the completion event and metrics.
type AllocationService struct {
	engine    Allocator
	publisher EventPublisher
	cache     Invalidator
	metrics   *metrics.Metrics
}

// NewAllocationService builds the service.  publisher may be nil when
// events are disabled.
func NewAllocationService(engine Allocator, publisher EventPublisher, cache Invalidator, m *metrics.Metrics) *AllocationService {
	return &AllocationService{engine: engine, publisher: publisher, cache: cache, metrics: m}
}

// Generate seats pending students.  The Result is meaningful even when err
// is non-nil: it carries success=false and the message to show.
func (s *AllocationService) Generate(ctx context.Context) (allocation.Result, error) {
	return s.run(ctx, model.RunGenerate, s.engine.Generate)
}

// Refresh clears the active dataset's allocations and seats its roster again.
func (s *AllocationService) Refresh(ctx context.Context) (allocation.Result, error) {
	return s.run(ctx, model.RunRefresh, s.engine.Refresh)
}

func (s *AllocationService) run(ctx context.Context, mode model.RunMode, fn func(context.Context) (allocation.Result, error)) (allocation.Result, error) {
	start := time.Now()
	res, err := fn(ctx)
	s.metrics.ObserveAllocation(string(mode), outcome(err), res.TotalAllocated, time.Since(start))
	if err != nil {
		if !errors.Is(err, allocation.ErrNoAvailableRooms) && !errors.Is(err, allocation.ErrAllocationInProgress) &&
			!errors.Is(err, allocation.ErrNoActiveDataset) {
			log.Printf("allocation: %s run failed: %v", mode, err)
		}
		return res, err
	}
	log.Printf("allocation: %s run %s on %q allocated %d, shortfall %d", mode, res.RunID, res.Dataset, res.TotalAllocated, res.Shortfall)
	s.metrics.SetShortfall(res.Shortfall)
	invalidate(ctx, s.cache)
	s.publish(queue.EventFromResult(res))
	return res, nil
}

// ImportSeating applies a seating sheet (.csv or .xlsx) to the active
// dataset.  Whole-file problems are ValidationErrors; rows are accepted or
// rejected individually.
func (s *AllocationService) ImportSeating(ctx context.Context, filename string, r io.Reader) (SeatingImportResult, error) {
	src, err := openUpload(r, filename)
	if err != nil {
		return SeatingImportResult{}, err
	}
	defer src.Close()
	parsed, err := roster.ParseSeatingRows(src)
	if err != nil {
		return SeatingImportResult{}, uploadError(err)
	}
	out := SeatingImportResult{Errors: parsed.Errors}
	if len(parsed.Requests) > 0 {
		start := time.Now()
		res, err := s.engine.Import(ctx, parsed.Requests)
		s.metrics.ObserveAllocation(string(model.RunImport), outcome(err), res.Applied, time.Since(start))
		if err != nil {
			return SeatingImportResult{}, err
		}
		out.RunID = res.RunID
		out.Dataset = res.Dataset
		out.Applied = res.Applied
		out.Placed = res.Placed
		out.Errors = mergeRowErrors(out.Errors, res.Errors)
		invalidate(ctx, s.cache)
		s.publish(importEvent(res))
	}
	out.Rejected = len(out.Errors)
	if out.Errors == nil {
		out.Errors = []model.RowError{}
	}
	s.metrics.ObserveUpload("seating", out.Applied, out.Rejected)
	return out, nil
}

// publish is best effort: a broker outage must not fail a committed run.
func (s *AllocationService) publish(ev queue.AllocationCompletedEvent) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishAllocationCompleted(ctx, ev); err != nil {
		log.Printf("allocation: publish event for run %s: %v", ev.RunID, err)
	}
}

func importEvent(res allocation.ImportResult) queue.AllocationCompletedEvent {
	seen := make(map[string]bool)
	rooms := []string{}
	for _, p := range res.Placed {
		if !seen[p.Room] {
			seen[p.Room] = true
			rooms = append(rooms, p.Room)
		}
	}
	return queue.AllocationCompletedEvent{
		RunID:          res.RunID,
		Dataset:        res.Dataset,
		Mode:           string(model.RunImport),
		Strategy:       "csv",
		TotalAllocated: res.Applied,
		RoomsUsed:      rooms,
		FinishedAt:     time.Now().UTC().Format(time.RFC3339),
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, allocation.ErrNoAvailableRooms):
		return "no_rooms"
	case errors.Is(err, allocation.ErrAllocationInProgress):
		return "busy"
	case errors.Is(err, allocation.ErrRunTimeout):
		return "timeout"
	case errors.Is(err, allocation.ErrNoActiveDataset):
		return "no_dataset"
	default:
		return "error"
	}
}

func mergeRowErrors(a, b []model.RowError) []model.RowError {
	out := make([]model.RowError, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Row <= b[j].Row {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
