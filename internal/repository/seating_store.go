package repository

import (
	"context"

	"github.com/iliyamo/exam-seating/internal/allocation"
	"github.com/iliyamo/exam-seating/internal/model"
)

// SeatingStore exposes the transactional repositories to the allocation
// engine.
type SeatingStore struct {
	tx TxManager
}

func NewSeatingStore(tx TxManager) *SeatingStore { return &SeatingStore{tx: tx} }

func (s *SeatingStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx allocation.Tx) error) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, repos TxRepositories) error {
		return fn(ctx, seatingTx{repos: repos})
	})
}

type seatingTx struct{ repos TxRepositories }

func (t seatingTx) ActiveDataset(ctx context.Context) (model.Dataset, error) {
	return t.repos.Datasets.ActiveForShare(ctx)
}

func (t seatingTx) LockRooms(ctx context.Context) ([]model.Room, error) {
	return t.repos.Rooms.ListForShare(ctx)
}

func (t seatingTx) PendingStudents(ctx context.Context, datasetID uint64) ([]model.Student, error) {
	return t.repos.Students.ListPending(ctx, datasetID)
}

func (t seatingTx) StudentsByRegisterNo(ctx context.Context, datasetID uint64, regs []string) ([]model.Student, error) {
	return t.repos.Students.ListByRegisterNos(ctx, datasetID, regs)
}

func (t seatingTx) Allocations(ctx context.Context, datasetID uint64) ([]model.Allocation, error) {
	return t.repos.Allocations.List(ctx, datasetID)
}

func (t seatingTx) ClearAllocations(ctx context.Context, datasetID uint64) (int64, error) {
	return t.repos.Allocations.Clear(ctx, datasetID)
}

func (t seatingTx) DeleteAllocationsFor(ctx context.Context, studentIDs []uint64) error {
	return t.repos.Allocations.DeleteForStudents(ctx, studentIDs)
}

func (t seatingTx) InsertAllocations(ctx context.Context, allocs []model.Allocation) error {
	return t.repos.Allocations.InsertBatch(ctx, allocs)
}

func (t seatingTx) InsertRun(ctx context.Context, run model.AllocationRun) error {
	return t.repos.Allocations.InsertRun(ctx, run)
}
