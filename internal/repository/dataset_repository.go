package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/exam-seating/internal/model"
)

// activeDatasetID is a scalar subquery for the active dataset's id.  It is
// NULL when no dataset is active, so "= activeDatasetID" then matches nothing.
const activeDatasetID = `(SELECT id FROM datasets WHERE is_active = 1 ORDER BY id LIMIT 1)`

const datasetSelect = `SELECT d.id, d.name, d.exam_type, d.description, d.is_active, d.created_at,
	(SELECT COUNT(*) FROM students s WHERE s.dataset_id = d.id)
	FROM datasets d`

// DatasetRepo stores datasets, the per-exam-session rosters.
type DatasetRepo struct {
	db Execer
}

func NewDatasetRepo(db Execer) *DatasetRepo { return &DatasetRepo{db: db} }

func scanDataset(row interface{ Scan(...any) error }) (model.Dataset, error) {
	var (
		d        model.Dataset
		examType string
	)
	err := row.Scan(&d.ID, &d.Name, &examType, &d.Description, &d.IsActive, &d.CreatedAt, &d.RecordCount)
	d.ExamType = model.ExamType(examType)
	return d, err
}

// List returns every dataset with its record count, newest first.
func (r *DatasetRepo) List(ctx context.Context) ([]model.Dataset, error) {
	rows, err := r.db.QueryContext(ctx, datasetSelect+` ORDER BY d.created_at DESC, d.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Get returns ErrDatasetNotFound when no row matches.
func (r *DatasetRepo) Get(ctx context.Context, id uint64) (model.Dataset, error) {
	d, err := scanDataset(r.db.QueryRowContext(ctx, datasetSelect+` WHERE d.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrDatasetNotFound
	}
	return d, err
}

// Active returns the active dataset or ErrNoActiveDataset.
func (r *DatasetRepo) Active(ctx context.Context) (model.Dataset, error) {
	return r.active(ctx, "")
}

// ActiveForShare is Active holding a shared lock on the row until the
// transaction ends.  A switch or delete of that dataset waits for it.
func (r *DatasetRepo) ActiveForShare(ctx context.Context) (model.Dataset, error) {
	return r.active(ctx, " FOR SHARE")
}

func (r *DatasetRepo) active(ctx context.Context, lock string) (model.Dataset, error) {
	q := datasetSelect + ` WHERE d.is_active = 1 ORDER BY d.id LIMIT 1` + lock
	d, err := scanDataset(r.db.QueryRowContext(ctx, q))
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNoActiveDataset
	}
	return d, err
}

// lockForUpdate takes an exclusive lock on the dataset row.
func (r *DatasetRepo) lockForUpdate(ctx context.Context, id uint64) error {
	var got uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM datasets WHERE id = ? FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDatasetNotFound
	}
	return err
}

// Create inserts d as the only active dataset.  Run it inside a transaction
// so the old dataset is never deactivated alone.  A taken name yields
// ErrDatasetExists.
func (r *DatasetRepo) Create(ctx context.Context, d *model.Dataset) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE datasets SET is_active = 0 WHERE is_active = 1`); err != nil {
		return err
	}
	const q = `INSERT INTO datasets (name, exam_type, description, is_active) VALUES (?, ?, ?, 1)`
	res, err := r.db.ExecContext(ctx, q, d.Name, string(d.ExamType), d.Description)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDatasetExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.Get(ctx, uint64(id))
	if err != nil {
		return err
	}
	*d = got
	return nil
}

// Activate makes id the only active dataset.
func (r *DatasetRepo) Activate(ctx context.Context, id uint64) error {
	if err := r.lockForUpdate(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE datasets SET is_active = (id = ?)`, id)
	return err
}

// ClearStudents deletes the dataset's students; their allocations cascade.
func (r *DatasetRepo) ClearStudents(ctx context.Context, id uint64) (int64, error) {
	if err := r.lockForUpdate(ctx, id); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE dataset_id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the dataset with its students and their allocations.  When
// it was active, the newest remaining dataset takes over.  The returned
// dataset is the one deleted.
func (r *DatasetRepo) Delete(ctx context.Context, id uint64) (model.Dataset, error) {
	if err := r.lockForUpdate(ctx, id); err != nil {
		return model.Dataset{}, err
	}
	d, err := r.Get(ctx, id)
	if err != nil {
		return d, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id); err != nil {
		return d, err
	}
	if d.IsActive {
		const q = `UPDATE datasets SET is_active = 1 ORDER BY created_at DESC, id DESC LIMIT 1`
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return d, err
		}
	}
	return d, nil
}
