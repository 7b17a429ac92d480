package model

import (
	"strconv"
	"time"
)

// Pending is shown in place of hall and seat until a student is allocated.
const Pending = "Pending"

// DateLayout is the wire format for date_of_birth and exam_date.
const DateLayout = "2006-01-02"

// Student is one roster row: a candidate sitting one exam.  RegisterNo is
// upper-case alphanumeric and unique within its dataset.
type Student struct {
	ID          uint64
	DatasetID   uint64
	RegisterNo  string
	Name        string
	DateOfBirth time.Time
	CourseCode  string
	CourseTitle string
	ExamDate    time.Time
	ExamSession string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Placement is where an allocated student sits.
type Placement struct {
	RoomID     uint64
	RoomNumber string
	SeatNumber uint32
	RunID      string
}

// StudentRecord joins a student with its placement, nil while pending.
type StudentRecord struct {
	Student
	Placement *Placement
}

// HallNumber returns the allocated room number or Pending.
func (r StudentRecord) HallNumber() string {
	if r.Placement == nil {
		return Pending
	}
	return r.Placement.RoomNumber
}

// SeatNumber returns the allocated seat as text or Pending.
func (r StudentRecord) SeatNumber() string {
	if r.Placement == nil {
		return Pending
	}
	return strconv.FormatUint(uint64(r.Placement.SeatNumber), 10)
}
