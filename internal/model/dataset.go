package model

import (
	"strings"
	"time"
)

// ExamType is the kind of examination a dataset holds.
type ExamType string

const (
	ExamEndSemester ExamType = "end_semester"
	ExamArrear      ExamType = "arrear"
	ExamInternal    ExamType = "internal"
)

// ParseExamType accepts any casing of a known exam type.  Empty means
// end_semester.
func ParseExamType(s string) (ExamType, bool) {
	switch t := ExamType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return ExamEndSemester, true
	case ExamEndSemester, ExamArrear, ExamInternal:
		return t, true
	}
	return "", false
}

// Label is the display name, e.g. "End Semester".
func (t ExamType) Label() string {
	switch t {
	case ExamArrear:
		return "Arrear"
	case ExamInternal:
		return "Internal"
	default:
		return "End Semester"
	}
}

// Dataset is one exam session's roster.  Exactly one dataset is active;
// uploads, runs and lookups work on it.  Rooms are shared by all datasets.
type Dataset struct {
	ID          uint64
	Name        string
	ExamType    ExamType
	Description string
	IsActive    bool
	RecordCount int
	CreatedAt   time.Time
}
