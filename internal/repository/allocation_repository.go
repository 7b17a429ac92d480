package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/exam-seating/internal/model"
)

// insertChunk caps the rows per multi-VALUES insert.
const insertChunk = 500

// AllocationRepo stores seat allocations and the runs that produced them.
type AllocationRepo struct {
	db Execer
}

func NewAllocationRepo(db Execer) *AllocationRepo { return &AllocationRepo{db: db} }

const allocationSelect = `SELECT id, dataset_id, student_id, room_id, seat_number, run_id, created_at
	FROM allocations`

// List returns the dataset's allocations ordered by room and seat.
func (r *AllocationRepo) List(ctx context.Context, datasetID uint64) ([]model.Allocation, error) {
	return r.list(ctx, allocationSelect+` WHERE dataset_id = ? ORDER BY room_id, seat_number`, datasetID)
}

// ListActive is List for the active dataset.
func (r *AllocationRepo) ListActive(ctx context.Context) ([]model.Allocation, error) {
	return r.list(ctx, allocationSelect+` WHERE dataset_id = `+activeDatasetID+` ORDER BY room_id, seat_number`)
}

func (r *AllocationRepo) list(ctx context.Context, q string, args ...any) ([]model.Allocation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Allocation
	for rows.Next() {
		var a model.Allocation
		if err := rows.Scan(&a.ID, &a.DatasetID, &a.StudentID, &a.RoomID, &a.SeatNumber, &a.RunID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Clear deletes the dataset's allocations and returns how many there were.
func (r *AllocationRepo) Clear(ctx context.Context, datasetID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM allocations WHERE dataset_id = ?`, datasetID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteForStudents removes the allocations of the given students.
func (r *AllocationRepo) DeleteForStudents(ctx context.Context, studentIDs []uint64) error {
	for start := 0; start < len(studentIDs); start += insertChunk {
		end := min(start+insertChunk, len(studentIDs))
		args := make([]any, 0, end-start)
		for _, id := range studentIDs[start:end] {
			args = append(args, id)
		}
		q := `DELETE FROM allocations WHERE student_id IN (` + placeholders(len(args)) + `)`
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// InsertBatch writes allocations in chunks.  A unique-key collision on a
// student or a (dataset, room, seat) triple returns ErrConflict.
func (r *AllocationRepo) InsertBatch(ctx context.Context, allocs []model.Allocation) error {
	for start := 0; start < len(allocs); start += insertChunk {
		end := min(start+insertChunk, len(allocs))
		chunk := allocs[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO allocations (dataset_id, student_id, room_id, seat_number, run_id) VALUES `)
		args := make([]any, 0, len(chunk)*5)
		for i, a := range chunk {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, a.DatasetID, a.StudentID, a.RoomID, a.SeatNumber, a.RunID)
		}
		if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
			if isDuplicateKey(err) {
				return ErrConflict
			}
			return err
		}
	}
	return nil
}

// InsertRun records a finished run.
func (r *AllocationRepo) InsertRun(ctx context.Context, run model.AllocationRun) error {
	const q = `INSERT INTO allocation_runs
		(id, dataset_id, mode, strategy, total_allocated, shortfall, cleared, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, run.ID, run.DatasetID, string(run.Mode), run.Strategy, run.TotalAllocated,
		run.Shortfall, run.Cleared, run.StartedAt, run.FinishedAt)
	return err
}

// LatestRun returns the active dataset's most recent run, or nil when none
// has committed.
func (r *AllocationRepo) LatestRun(ctx context.Context) (*model.AllocationRun, error) {
	const q = `SELECT id, dataset_id, mode, strategy, total_allocated, shortfall, cleared, started_at, finished_at
		FROM allocation_runs WHERE dataset_id = ` + activeDatasetID + `
		ORDER BY finished_at DESC LIMIT 1`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	var run model.AllocationRun
	var mode string
	if err := rows.Scan(&run.ID, &run.DatasetID, &mode, &run.Strategy, &run.TotalAllocated, &run.Shortfall,
		&run.Cleared, &run.StartedAt, &run.FinishedAt); err != nil {
		return nil, err
	}
	run.Mode = model.RunMode(mode)
	return &run, nil
}
