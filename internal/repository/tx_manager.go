package repository

import (
	"context"
	"database/sql"
)

// Execer is satisfied by both *sql.DB and *sql.Tx so every repository can run
// inside or outside a transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRepositories are the repositories bound to one open transaction.
type TxRepositories struct {
	Rooms       *RoomRepo
	Students    *StudentRepo
	Allocations *AllocationRepo
	Datasets    *DatasetRepo
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

type MySQLTxManager struct {
	db *sql.DB
}

func NewMySQLTxManager(db *sql.DB) *MySQLTxManager {
	return &MySQLTxManager{db: db}
}

// WithTx runs fn in a REPEATABLE READ transaction and commits when fn returns
// nil.  Any error, including context expiry, rolls everything back.
func (m *MySQLTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return err
	}

	repos := TxRepositories{
		Rooms:       NewRoomRepo(tx),
		Students:    NewStudentRepo(tx),
		Allocations: NewAllocationRepo(tx),
		Datasets:    NewDatasetRepo(tx),
	}

	if err := fn(ctx, repos); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			return rollbackErr
		}
		return err
	}

	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
