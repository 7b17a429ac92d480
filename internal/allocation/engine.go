// Package allocation assigns pending students to seats in available rooms.
//
// A run reads rooms, allocations and pending students inside one
// transaction, computes a deterministic greedy fill, and writes the new
// allocations plus a run record before committing.  Nothing is visible to
// readers until the commit, and any failure leaves the previous state intact.
// Only one run (generate, refresh or seating import) executes at a time, and
// every run works on the students of the active dataset only.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/exam-seating/internal/model"
)

var (
	// ErrNoAvailableRooms means students are pending but no room is open.
	ErrNoAvailableRooms = errors.New("No available rooms")
	// ErrAllocationInProgress means another run holds the lock.
	ErrAllocationInProgress = errors.New("Allocation already running")
	// ErrRunTimeout means the run exceeded its time budget and was rolled back.
	ErrRunTimeout = errors.New("allocation timed out")
	// ErrNoActiveDataset means no dataset is marked active.
	ErrNoActiveDataset = errors.New("No dataset available. Please create a dataset first.")
)

// Tx is the storage view a run works against.  Every method executes inside
// the same transaction.
type Tx interface {
	// ActiveDataset returns the active dataset and holds a shared lock on it,
	// so a switch waits for the run to finish.  ErrNoActiveDataset when none.
	ActiveDataset(ctx context.Context) (model.Dataset, error)
	// LockRooms returns all rooms ordered by room_number and holds a shared
	// lock on them until the transaction ends.
	LockRooms(ctx context.Context) ([]model.Room, error)
	PendingStudents(ctx context.Context, datasetID uint64) ([]model.Student, error)
	StudentsByRegisterNo(ctx context.Context, datasetID uint64, regs []string) ([]model.Student, error)
	Allocations(ctx context.Context, datasetID uint64) ([]model.Allocation, error)
	ClearAllocations(ctx context.Context, datasetID uint64) (int64, error)
	DeleteAllocationsFor(ctx context.Context, studentIDs []uint64) error
	InsertAllocations(ctx context.Context, allocs []model.Allocation) error
	InsertRun(ctx context.Context, run model.AllocationRun) error
}

// Store opens transactions.  fn returning an error rolls back.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Placed is one seat handed out by a run.
type Placed struct {
	Room       string
	RegisterNo string
	SeatNumber uint32
}

// Result summarises a run.  TotalAllocated counts seats assigned by this run
// only; TotalSeated counts every allocation after it.
type Result struct {
	Success        bool
	RunID          string
	DatasetID      uint64
	Dataset        string
	Mode           model.RunMode
	Strategy       string
	TotalAllocated int
	Shortfall      int
	TotalSeated    int
	Cleared        int
	RoomsUsed      []string
	Allocations    []Placed
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Message is the human summary shown next to the result.
func (r Result) Message() string {
	switch {
	case !r.Success:
		return r.Error
	case r.TotalAllocated == 0 && r.Shortfall == 0:
		return "No pending students to allocate"
	case r.Shortfall > 0:
		return fmt.Sprintf("Allocated %d students; %d remain pending for lack of seats", r.TotalAllocated, r.Shortfall)
	default:
		return fmt.Sprintf("Allocated %d students", r.TotalAllocated)
	}
}

// Engine runs allocations.
type Engine struct {
	store    Store
	strategy Strategy
	lock     Locker
	timeout  time.Duration
	now      func() time.Time
	newID    func() string
}

// Option customises an Engine.
type Option func(*Engine)

func WithLocker(l Locker) Option            { return func(e *Engine) { e.lock = l } }
func WithTimeout(d time.Duration) Option    { return func(e *Engine) { e.timeout = d } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithIDs(newID func() string) Option    { return func(e *Engine) { e.newID = newID } }

// NewEngine builds an engine with an in-process lock and a 30s timeout
// unless options say otherwise.
func NewEngine(store Store, strategy Strategy, opts ...Option) *Engine {
	if strategy == nil {
		strategy = Sequential{}
	}
	e := &Engine{
		store:    store,
		strategy: strategy,
		lock:     &LocalLock{},
		timeout:  30 * time.Second,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy reports the configured strategy name.
func (e *Engine) Strategy() string { return e.strategy.Name() }

// Generate seats students that have no allocation yet.  Existing
// allocations are left where they are.
func (e *Engine) Generate(ctx context.Context) (Result, error) {
	return e.allocate(ctx, model.RunGenerate)
}

// Refresh clears the active dataset's allocations and seats its whole roster
// again.  The
// clear and the new allocations commit together or not at all.
func (e *Engine) Refresh(ctx context.Context) (Result, error) {
	return e.allocate(ctx, model.RunRefresh)
}

// acquire takes the run lock and applies the run timeout.
func (e *Engine) acquire(ctx context.Context) (context.Context, func(), error) {
	release, ok, err := e.lock.TryLock(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire allocation lock: %w", err)
	}
	if !ok {
		return nil, nil, ErrAllocationInProgress
	}
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	return runCtx, func() { cancel(); release() }, nil
}

func (e *Engine) allocate(ctx context.Context, mode model.RunMode) (Result, error) {
	res := Result{Mode: mode, Strategy: e.strategy.Name(), StartedAt: e.now()}

	runCtx, done, err := e.acquire(ctx)
	if err != nil {
		return e.failed(res, err), err
	}
	defer done()

	runID := e.newID()
	err = e.store.WithTx(runCtx, func(ctx context.Context, tx Tx) error {
		out := Result{Mode: mode, Strategy: res.Strategy, StartedAt: res.StartedAt, RunID: runID}

		ds, err := tx.ActiveDataset(ctx)
		if err != nil {
			return err
		}
		out.DatasetID, out.Dataset = ds.ID, ds.Name

		if mode == model.RunRefresh {
			n, err := tx.ClearAllocations(ctx, ds.ID)
			if err != nil {
				return fmt.Errorf("clear allocations: %w", err)
			}
			out.Cleared = int(n)
		}

		rooms, err := tx.LockRooms(ctx)
		if err != nil {
			return fmt.Errorf("load rooms: %w", err)
		}
		existing, err := tx.Allocations(ctx, ds.ID)
		if err != nil {
			return fmt.Errorf("load allocations: %w", err)
		}
		pending, err := tx.PendingStudents(ctx, ds.ID)
		if err != nil {
			return fmt.Errorf("load pending students: %w", err)
		}

		var plan Plan
		if len(pending) > 0 {
			if !anyAvailable(rooms) {
				return ErrNoAvailableRooms
			}
			plan = Fill(rooms, OccupancyOf(existing), e.strategy.Order(pending))
		}

		allocs := make([]model.Allocation, 0, len(plan.Assignments))
		for _, a := range plan.Assignments {
			allocs = append(allocs, model.Allocation{
				DatasetID:  ds.ID,
				StudentID:  a.Student.ID,
				RoomID:     a.Room.ID,
				SeatNumber: a.SeatNumber,
				RunID:      runID,
			})
			out.Allocations = append(out.Allocations, Placed{
				Room:       a.Room.RoomNumber,
				RegisterNo: a.Student.RegisterNo,
				SeatNumber: a.SeatNumber,
			})
		}
		if len(allocs) > 0 {
			if err := tx.InsertAllocations(ctx, allocs); err != nil {
				return fmt.Errorf("insert allocations: %w", err)
			}
		}

		out.Success = true
		out.TotalAllocated = len(allocs)
		out.Shortfall = plan.Shortfall
		out.TotalSeated = len(existing) + len(allocs)
		out.RoomsUsed = roomsUsed(out.Allocations)
		out.FinishedAt = e.now()

		if err := tx.InsertRun(ctx, runRecord(out)); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		res = out
		return nil
	})
	if err != nil {
		err = e.classify(runCtx, err)
		return e.failed(Result{Mode: mode, Strategy: res.Strategy, StartedAt: res.StartedAt}, err), err
	}
	return res, nil
}

// classify turns a context expiry into ErrRunTimeout.
func (e *Engine) classify(runCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		if !errors.Is(err, ErrNoAvailableRooms) && !errors.Is(err, ErrNoActiveDataset) {
			return fmt.Errorf("%w: %v", ErrRunTimeout, err)
		}
	}
	return err
}

func (e *Engine) failed(res Result, err error) Result {
	res.Success = false
	res.TotalAllocated = 0
	res.Allocations = nil
	res.FinishedAt = e.now()
	switch {
	case errors.Is(err, ErrNoAvailableRooms):
		res.Error = ErrNoAvailableRooms.Error()
	case errors.Is(err, ErrAllocationInProgress):
		res.Error = ErrAllocationInProgress.Error()
	case errors.Is(err, ErrNoActiveDataset):
		res.Error = ErrNoActiveDataset.Error()
	case errors.Is(err, ErrRunTimeout):
		res.Error = "Allocation timed out; nothing was changed"
	default:
		res.Error = "Allocation failed; nothing was changed"
	}
	return res
}

func anyAvailable(rooms []model.Room) bool {
	for _, r := range rooms {
		if r.IsAvailable && r.Capacity > 0 {
			return true
		}
	}
	return false
}

func roomsUsed(placed []Placed) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range placed {
		if !seen[p.Room] {
			seen[p.Room] = true
			out = append(out, p.Room)
		}
	}
	sort.Strings(out)
	return out
}

func runRecord(r Result) model.AllocationRun {
	return model.AllocationRun{
		ID:             r.RunID,
		DatasetID:      r.DatasetID,
		Mode:           r.Mode,
		Strategy:       r.Strategy,
		TotalAllocated: r.TotalAllocated,
		Shortfall:      r.Shortfall,
		Cleared:        r.Cleared,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
}

// normalizeRegisterNo trims and upper-cases a register number.
func normalizeRegisterNo(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
