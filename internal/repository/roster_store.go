package repository

import (
	"context"
	"fmt"

	"github.com/iliyamo/exam-seating/internal/model"
)

// RosterStore writes an ingested roster in one transaction.
type RosterStore struct {
	tx TxManager
}

func NewRosterStore(tx TxManager) *RosterStore { return &RosterStore{tx: tx} }

// UpsertStudents upserts every student by register_no into the active
// dataset, whose name it returns.  Either all rows land or none do.
func (s *RosterStore) UpsertStudents(ctx context.Context, students []model.Student) (dataset string, created, updated int, err error) {
	err = s.tx.WithTx(ctx, func(ctx context.Context, repos TxRepositories) error {
		created, updated = 0, 0
		ds, err := repos.Datasets.ActiveForShare(ctx)
		if err != nil {
			return err
		}
		dataset = ds.Name
		for _, st := range students {
			st.DatasetID = ds.ID
			res, err := repos.Students.Upsert(ctx, st)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", st.RegisterNo, err)
			}
			switch res {
			case UpsertCreated:
				created++
			case UpsertUpdated:
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return "", 0, 0, err
	}
	return dataset, created, updated, nil
}
