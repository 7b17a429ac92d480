// Package repository holds the MySQL data access code.  The sentinel errors
// below let services and handlers tell "not there" and "already there" apart
// from storage failures without inspecting driver errors themselves.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/exam-seating/internal/allocation"
)

var (
	// ErrConflict is returned when a write collides with existing state,
	// such as a seat already held by another student.
	ErrConflict = errors.New("conflict")

	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExists      = errors.New("room already exists")
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentExists   = errors.New("student already exists")
	ErrStaffNotFound   = errors.New("staff account not found")
	ErrUsernameExists  = errors.New("username already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrDatasetExists   = errors.New("dataset already exists")

	// ErrNoActiveDataset is the engine's error, so callers test for one value.
	ErrNoActiveDataset = allocation.ErrNoActiveDataset
)

// isDuplicateKey reports MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
