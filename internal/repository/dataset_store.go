package repository

import (
	"context"

	"github.com/iliyamo/exam-seating/internal/model"
)

// DatasetStore runs dataset changes in transactions, so a switch, clear or
// delete waits for an allocation run holding the active dataset.
type DatasetStore struct {
	db Execer
	tx TxManager
}

func NewDatasetStore(db Execer, tx TxManager) *DatasetStore {
	return &DatasetStore{db: db, tx: tx}
}

func (s *DatasetStore) List(ctx context.Context) ([]model.Dataset, error) {
	return NewDatasetRepo(s.db).List(ctx)
}

func (s *DatasetStore) Active(ctx context.Context) (model.Dataset, error) {
	return NewDatasetRepo(s.db).Active(ctx)
}

// Create inserts d and makes it the active dataset.
func (s *DatasetStore) Create(ctx context.Context, d *model.Dataset) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, repos TxRepositories) error {
		return repos.Datasets.Create(ctx, d)
	})
}

// Activate switches the active dataset and returns it.
func (s *DatasetStore) Activate(ctx context.Context, id uint64) (model.Dataset, error) {
	var d model.Dataset
	err := s.tx.WithTx(ctx, func(ctx context.Context, repos TxRepositories) error {
		if err := repos.Datasets.Activate(ctx, id); err != nil {
			return err
		}
		var err error
		d, err = repos.Datasets.Get(ctx, id)
		return err
	})
	return d, err
}

// ClearStudents empties the dataset and reports how many students went.
func (s *DatasetStore) ClearStudents(ctx context.Context, id uint64) (model.Dataset, int64, error) {
	var (
		d model.Dataset
		n int64
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, repos TxRepositories) error {
		var err error
		if n, err = repos.Datasets.ClearStudents(ctx, id); err != nil {
			return err
		}
		d, err = repos.Datasets.Get(ctx, id)
		return err
	})
	return d, n, err
}

func (s *DatasetStore) Delete(ctx context.Context, id uint64) (model.Dataset, error) {
	var d model.Dataset
	err := s.tx.WithTx(ctx, func(ctx context.Context, repos TxRepositories) error {
		var err error
		d, err = repos.Datasets.Delete(ctx, id)
		return err
	})
	return d, err
}
