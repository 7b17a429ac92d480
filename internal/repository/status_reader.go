package repository

import (
	"context"

	"github.com/iliyamo/exam-seating/internal/model"
)

// StatusReader gathers the reads behind the status report from the
// individual repositories.  Everything but rooms is the active dataset's.
type StatusReader struct {
	rooms       *RoomRepo
	students    *StudentRepo
	allocations *AllocationRepo
	datasets    *DatasetRepo
}

func NewStatusReader(db Execer) *StatusReader {
	return &StatusReader{
		rooms:       NewRoomRepo(db),
		students:    NewStudentRepo(db),
		allocations: NewAllocationRepo(db),
		datasets:    NewDatasetRepo(db),
	}
}

func (s *StatusReader) Rooms(ctx context.Context) ([]model.Room, error) { return s.rooms.List(ctx) }

func (s *StatusReader) Allocations(ctx context.Context) ([]model.Allocation, error) {
	return s.allocations.ListActive(ctx)
}

func (s *StatusReader) ActiveDataset(ctx context.Context) (model.Dataset, error) {
	return s.datasets.Active(ctx)
}

func (s *StatusReader) CountByCourse(ctx context.Context) ([]CourseCount, error) {
	return s.students.CountByCourse(ctx)
}

func (s *StatusReader) LatestRun(ctx context.Context) (*model.AllocationRun, error) {
	return s.allocations.LatestRun(ctx)
}
