package model

import "time"

// RunMode says how an allocation run came about.
type RunMode string

const (
	RunGenerate RunMode = "GENERATE" // incremental: only pending students
	RunRefresh  RunMode = "REFRESH"  // clear the dataset, then allocate all
	RunImport   RunMode = "IMPORT"   // seats supplied by an uploaded CSV
)

// Allocation binds one student to one seat of one room.  DatasetID repeats
// the student's dataset so seats are unique per dataset.
type Allocation struct {
	ID         uint64
	DatasetID  uint64
	StudentID  uint64
	RoomID     uint64
	SeatNumber uint32
	RunID      string
	CreatedAt  time.Time
}

// AllocationRun records the outcome of one committed run.
type AllocationRun struct {
	ID             string
	DatasetID      uint64
	Mode           RunMode
	Strategy       string
	TotalAllocated int
	Shortfall      int
	Cleared        int
	StartedAt      time.Time
	FinishedAt     time.Time
}
