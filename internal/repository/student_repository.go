package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/exam-seating/internal/model"
)

const studentColumns = `s.id, s.dataset_id, s.register_no, s.student_name, s.date_of_birth, s.course_code,
	s.course_title, s.exam_date, s.exam_session, s.created_at, s.updated_at`

// recordSelect joins each student with its allocation, if any.
const recordSelect = `SELECT ` + studentColumns + `, a.room_id, r.room_number, a.seat_number, a.run_id
	FROM students s
	LEFT JOIN allocations a ON a.student_id = s.id
	LEFT JOIN rooms r ON r.id = a.room_id`

// StudentRepo stores the exam roster.  Lookups by register_no and the
// listings read the active dataset; lookups by id do not need to.
type StudentRepo struct {
	db Execer
}

func NewStudentRepo(db Execer) *StudentRepo { return &StudentRepo{db: db} }

// UpsertResult tells whether an upsert created a row.
type UpsertResult int

const (
	UpsertUnchanged UpsertResult = iota
	UpsertCreated
	UpsertUpdated
)

// Upsert inserts the student into s.DatasetID or overwrites the row with the
// same register_no there.  The allocation, if any, is kept.  MySQL reports 1 affected row
// for an insert, 2 for an update and 0 when nothing changed.
func (r *StudentRepo) Upsert(ctx context.Context, s model.Student) (UpsertResult, error) {
	const q = `INSERT INTO students
		(dataset_id, register_no, student_name, date_of_birth, course_code, course_title, exam_date, exam_session)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		student_name = VALUES(student_name), date_of_birth = VALUES(date_of_birth),
		course_code = VALUES(course_code), course_title = VALUES(course_title),
		exam_date = VALUES(exam_date), exam_session = VALUES(exam_session)`
	res, err := r.db.ExecContext(ctx, q, s.DatasetID, s.RegisterNo, s.Name, s.DateOfBirth, s.CourseCode,
		s.CourseTitle, s.ExamDate, s.ExamSession)
	if err != nil {
		return UpsertUnchanged, err
	}
	switch n, _ := res.RowsAffected(); n {
	case 1:
		return UpsertCreated, nil
	case 0:
		return UpsertUnchanged, nil
	default:
		return UpsertUpdated, nil
	}
}

// Create inserts a new student into the active dataset; a register_no taken
// there yields ErrStudentExists.
func (r *StudentRepo) Create(ctx context.Context, s *model.Student) error {
	const q = `INSERT INTO students
		(dataset_id, register_no, student_name, date_of_birth, course_code, course_title, exam_date, exam_session)
		SELECT id, ?, ?, ?, ?, ?, ?, ? FROM datasets WHERE is_active = 1 ORDER BY id LIMIT 1`
	res, err := r.db.ExecContext(ctx, q, s.RegisterNo, s.Name, s.DateOfBirth, s.CourseCode,
		s.CourseTitle, s.ExamDate, s.ExamSession)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrStudentExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoActiveDataset
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec, err := r.GetRecord(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = rec.Student
	return nil
}

// Update overwrites every roster field of the student with s.ID.
func (r *StudentRepo) Update(ctx context.Context, s model.Student) error {
	const q = `UPDATE students SET register_no = ?, student_name = ?, date_of_birth = ?,
		course_code = ?, course_title = ?, exam_date = ?, exam_session = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.RegisterNo, s.Name, s.DateOfBirth, s.CourseCode,
		s.CourseTitle, s.ExamDate, s.ExamSession, s.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrStudentExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// zero rows is also what MySQL reports for an identical update
		if _, err := r.GetRecord(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the student; its allocation goes with it (ON DELETE CASCADE).
func (r *StudentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func scanRecord(row interface{ Scan(...any) error }) (model.StudentRecord, error) {
	var (
		rec        model.StudentRecord
		roomID     sql.NullInt64
		roomNumber sql.NullString
		seat       sql.NullInt32
		runID      sql.NullString
	)
	s := &rec.Student
	err := row.Scan(&s.ID, &s.DatasetID, &s.RegisterNo, &s.Name, &s.DateOfBirth, &s.CourseCode,
		&s.CourseTitle, &s.ExamDate, &s.ExamSession, &s.CreatedAt, &s.UpdatedAt,
		&roomID, &roomNumber, &seat, &runID)
	if err != nil {
		return rec, err
	}
	if roomID.Valid {
		rec.Placement = &model.Placement{
			RoomID:     uint64(roomID.Int64),
			RoomNumber: roomNumber.String,
			SeatNumber: uint32(seat.Int32),
			RunID:      runID.String,
		}
	}
	return rec, nil
}

// GetRecord loads a student with its placement.
func (r *StudentRepo) GetRecord(ctx context.Context, id uint64) (model.StudentRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, recordSelect+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrStudentNotFound
	}
	return rec, err
}

// GetRecordByRegisterNo is GetRecord keyed by the normalized register_no
// within the active dataset.
func (r *StudentRepo) GetRecordByRegisterNo(ctx context.Context, registerNo string) (model.StudentRecord, error) {
	registerNo = strings.ToUpper(strings.TrimSpace(registerNo))
	rec, err := scanRecord(r.db.QueryRowContext(ctx, recordSelect+` WHERE s.register_no = ? AND s.dataset_id = `+activeDatasetID, registerNo))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrStudentNotFound
	}
	return rec, err
}

// ListRecords returns the active dataset's roster with placements, by
// register_no.
func (r *StudentRepo) ListRecords(ctx context.Context) ([]model.StudentRecord, error) {
	rows, err := r.db.QueryContext(ctx, recordSelect+` WHERE s.dataset_id = `+activeDatasetID+` ORDER BY s.register_no`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StudentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListPending returns the dataset's students without an allocation, by
// register_no.
func (r *StudentRepo) ListPending(ctx context.Context, datasetID uint64) ([]model.Student, error) {
	q := `SELECT ` + studentColumns + ` FROM students s
		WHERE s.dataset_id = ?
		AND NOT EXISTS (SELECT 1 FROM allocations a WHERE a.student_id = s.id)
		ORDER BY s.register_no`
	return r.listStudents(ctx, q, datasetID)
}

// ListByRegisterNos returns the dataset's students whose register_no is in
// regs.
func (r *StudentRepo) ListByRegisterNos(ctx context.Context, datasetID uint64, regs []string) ([]model.Student, error) {
	if len(regs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(regs)+1)
	args = append(args, datasetID)
	for _, reg := range regs {
		args = append(args, reg)
	}
	q := `SELECT ` + studentColumns + ` FROM students s
		WHERE s.dataset_id = ? AND s.register_no IN (` + placeholders(len(regs)) + `)
		ORDER BY s.register_no`
	return r.listStudents(ctx, q, args...)
}

func (r *StudentRepo) listStudents(ctx context.Context, q string, args ...any) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.DatasetID, &s.RegisterNo, &s.Name, &s.DateOfBirth, &s.CourseCode,
			&s.CourseTitle, &s.ExamDate, &s.ExamSession, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CourseCount is one line of the per-course status breakdown.
type CourseCount struct {
	CourseCode string
	Total      int
	Allocated  int
}

// CountByCourse groups the active dataset's roster by course_code.
func (r *StudentRepo) CountByCourse(ctx context.Context) ([]CourseCount, error) {
	const q = `SELECT s.course_code, COUNT(*), COUNT(a.id)
		FROM students s LEFT JOIN allocations a ON a.student_id = s.id
		WHERE s.dataset_id = ` + activeDatasetID + `
		GROUP BY s.course_code ORDER BY s.course_code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseCount
	for rows.Next() {
		var c CourseCount
		if err := rows.Scan(&c.CourseCode, &c.Total, &c.Allocated); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
