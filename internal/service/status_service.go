package service

import (
	"context"
	"errors"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
)

// StatusSource is the read side the status report draws on.
type StatusSource interface {
	Rooms(ctx context.Context) ([]model.Room, error)
	Allocations(ctx context.Context) ([]model.Allocation, error)
	CountByCourse(ctx context.Context) ([]repository.CourseCount, error)
	LatestRun(ctx context.Context) (*model.AllocationRun, error)
	ActiveDataset(ctx context.Context) (model.Dataset, error)
}

// Status is the dashboard summary.  Shortfall is how many pending students
// would stay pending if a run started now.
type Status struct {
	Students          int
	Pending           int
	Allocated         int
	Rooms             int
	AvailableRooms    int
	AvailableCapacity int
	FreeSeats         int
	Shortfall         int
	Courses           []repository.CourseCount
	LastRun           *model.AllocationRun
	// Dataset is nil until the first dataset is created.
	Dataset *model.Dataset
}

// StatusService builds the status report.
type StatusService struct {
	src StatusSource
}

func NewStatusService(src StatusSource) *StatusService { return &StatusService{src: src} }

// Report computes totals from the current rooms, allocations and roster.
func (s *StatusService) Report(ctx context.Context) (Status, error) {
	rooms, err := s.src.Rooms(ctx)
	if err != nil {
		return Status{}, err
	}
	allocs, err := s.src.Allocations(ctx)
	if err != nil {
		return Status{}, err
	}
	courses, err := s.src.CountByCourse(ctx)
	if err != nil {
		return Status{}, err
	}
	last, err := s.src.LatestRun(ctx)
	if err != nil {
		return Status{}, err
	}

	var ds *model.Dataset
	switch d, err := s.src.ActiveDataset(ctx); {
	case err == nil:
		ds = &d
	case !errors.Is(err, repository.ErrNoActiveDataset):
		return Status{}, err
	}

	used := make(map[uint64]int, len(rooms))
	for _, a := range allocs {
		used[a.RoomID]++
	}
	st := Status{Rooms: len(rooms), Courses: courses, LastRun: last, Dataset: ds}
	if st.Courses == nil {
		st.Courses = []repository.CourseCount{}
	}
	for _, r := range rooms {
		if !r.IsAvailable {
			continue
		}
		st.AvailableRooms++
		st.AvailableCapacity += int(r.Capacity)
		if free := int(r.Capacity) - used[r.ID]; free > 0 {
			st.FreeSeats += free
		}
	}
	for _, c := range courses {
		st.Students += c.Total
		st.Allocated += c.Allocated
	}
	st.Pending = st.Students - st.Allocated
	if gap := st.Pending - st.FreeSeats; gap > 0 {
		st.Shortfall = gap
	}
	return st, nil
}
