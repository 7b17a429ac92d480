package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/roster"
)

// Record messages shown to admins.
var (
	ErrRecordNotFound = errors.New("Record not found")
	ErrRecordExists   = errors.New("Register number already exists")
)

// StudentStore is the persistence RecordService needs.
type StudentStore interface {
	Create(ctx context.Context, s *model.Student) error
	Update(ctx context.Context, s model.Student) error
	Delete(ctx context.Context, id uint64) error
	GetRecord(ctx context.Context, id uint64) (model.StudentRecord, error)
	ListRecords(ctx context.Context) ([]model.StudentRecord, error)
}

// StudentInput is a roster row as typed into the admin form.  Dates use the
// same layouts the CSV upload accepts.
type StudentInput struct {
	RegisterNo  string
	Name        string
	DateOfBirth string
	CourseCode  string
	CourseTitle string
	ExamDate    string
	ExamSession string
}

// RecordService is admin CRUD over individual students.
type RecordService struct {
	students StudentStore
	cache    Invalidator
}

func NewRecordService(students StudentStore, cache Invalidator) *RecordService {
	return &RecordService{students: students, cache: cache}
}

// List returns every student with their placement, ordered by register_no.
func (s *RecordService) List(ctx context.Context) ([]model.StudentRecord, error) {
	return s.students.ListRecords(ctx)
}

// Get returns one student record.
func (s *RecordService) Get(ctx context.Context, id uint64) (model.StudentRecord, error) {
	rec, err := s.students.GetRecord(ctx, id)
	return rec, mapRecordErr(err)
}

// Create adds a single student.  The new student starts Pending.
func (s *RecordService) Create(ctx context.Context, in StudentInput) (model.StudentRecord, error) {
	st, err := toStudent(in)
	if err != nil {
		return model.StudentRecord{}, err
	}
	if err := s.students.Create(ctx, &st); err != nil {
		return model.StudentRecord{}, mapRecordErr(err)
	}
	invalidate(ctx, s.cache)
	return model.StudentRecord{Student: st}, nil
}

// Update replaces the roster fields of a student.  Their seat, if any, is
// kept.
func (s *RecordService) Update(ctx context.Context, id uint64, in StudentInput) (model.StudentRecord, error) {
	st, err := toStudent(in)
	if err != nil {
		return model.StudentRecord{}, err
	}
	st.ID = id
	if err := s.students.Update(ctx, st); err != nil {
		return model.StudentRecord{}, mapRecordErr(err)
	}
	invalidate(ctx, s.cache)
	rec, err := s.students.GetRecord(ctx, id)
	return rec, mapRecordErr(err)
}

// Delete removes a student and frees their seat.
func (s *RecordService) Delete(ctx context.Context, id uint64) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return mapRecordErr(err)
	}
	invalidate(ctx, s.cache)
	return nil
}

func toStudent(in StudentInput) (model.Student, error) {
	st := model.Student{
		RegisterNo:  roster.NormalizeRegisterNo(in.RegisterNo),
		Name:        strings.TrimSpace(in.Name),
		CourseCode:  strings.ToUpper(strings.TrimSpace(in.CourseCode)),
		CourseTitle: strings.TrimSpace(in.CourseTitle),
		ExamSession: strings.TrimSpace(in.ExamSession),
	}
	var bad []model.RowError
	if v := strings.TrimSpace(in.DateOfBirth); v != "" {
		d, err := roster.ParseBirthDate(v)
		if err != nil {
			bad = append(bad, model.RowError{Kind: model.RowInvalidField, Field: "date_of_birth", Message: "date_of_birth is not a valid date"})
		}
		st.DateOfBirth = d
	}
	if v := strings.TrimSpace(in.ExamDate); v != "" {
		d, err := roster.ParseExamDate(v)
		if err != nil {
			bad = append(bad, model.RowError{Kind: model.RowInvalidField, Field: "exam_date", Message: "exam_date is not a valid date"})
		}
		st.ExamDate = d
	}
	if len(bad) == 0 {
		bad = roster.ValidateStudent(st)
	}
	if len(bad) > 0 {
		return model.Student{}, &ValidationError{Message: joinFields(bad), Rows: bad}
	}
	return st, nil
}

func mapRecordErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrStudentNotFound):
		return ErrRecordNotFound
	case errors.Is(err, repository.ErrStudentExists):
		return ErrRecordExists
	}
	return err
}
