package allocation

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/iliyamo/exam-seating/internal/model"
)

// memStore is an in-memory Store.  WithTx works on a copy of the state and
// swaps it in only when fn succeeds, mirroring commit/rollback.
type memStore struct {
	mu       sync.Mutex
	rooms    []model.Room
	students []model.Student
	allocs   []model.Allocation
	runs     []model.AllocationRun
	// active is the active dataset id; zero means dataset 1.
	active   uint64
	noActive bool

	failInsert error
	// block, when set, is waited on inside the transaction.
	block chan struct{}
	// entered is closed once a transaction has started.
	entered chan struct{}
}

type memTx struct {
	s      *memStore
	allocs []model.Allocation
	runs   []model.AllocationRun
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	tx := &memTx{
		s:      m,
		allocs: append([]model.Allocation(nil), m.allocs...),
		runs:   append([]model.AllocationRun(nil), m.runs...),
	}
	m.mu.Unlock()

	if m.entered != nil {
		close(m.entered)
		m.entered = nil
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.allocs = tx.allocs
	m.runs = tx.runs
	m.mu.Unlock()
	return nil
}

func (t *memTx) ActiveDataset(context.Context) (model.Dataset, error) {
	if t.s.noActive {
		return model.Dataset{}, ErrNoActiveDataset
	}
	return model.Dataset{ID: t.s.activeID(), Name: "current", IsActive: true}, nil
}

func (m *memStore) activeID() uint64 {
	if m.active == 0 {
		return 1
	}
	return m.active
}

// datasetOf resolves an allocation's dataset, falling back to its student's.
func (t *memTx) datasetOf(a model.Allocation) uint64 {
	if a.DatasetID != 0 {
		return a.DatasetID
	}
	for _, s := range t.s.students {
		if s.ID == a.StudentID {
			return s.DatasetID
		}
	}
	return 0
}

func (t *memTx) LockRooms(context.Context) ([]model.Room, error) {
	out := append([]model.Room(nil), t.s.rooms...)
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

func (t *memTx) PendingStudents(_ context.Context, datasetID uint64) ([]model.Student, error) {
	seated := make(map[uint64]bool)
	for _, a := range t.allocs {
		seated[a.StudentID] = true
	}
	var out []model.Student
	for _, s := range t.s.students {
		if s.DatasetID == datasetID && !seated[s.ID] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisterNo < out[j].RegisterNo })
	return out, nil
}

func (t *memTx) StudentsByRegisterNo(_ context.Context, datasetID uint64, regs []string) ([]model.Student, error) {
	want := make(map[string]bool)
	for _, r := range regs {
		want[r] = true
	}
	var out []model.Student
	for _, s := range t.s.students {
		if s.DatasetID == datasetID && want[s.RegisterNo] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *memTx) Allocations(_ context.Context, datasetID uint64) ([]model.Allocation, error) {
	var out []model.Allocation
	for _, a := range t.allocs {
		if t.datasetOf(a) == datasetID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *memTx) ClearAllocations(_ context.Context, datasetID uint64) (int64, error) {
	kept := t.allocs[:0:0]
	for _, a := range t.allocs {
		if t.datasetOf(a) != datasetID {
			kept = append(kept, a)
		}
	}
	n := len(t.allocs) - len(kept)
	t.allocs = kept
	return int64(n), nil
}

func (t *memTx) DeleteAllocationsFor(_ context.Context, ids []uint64) error {
	drop := make(map[uint64]bool)
	for _, id := range ids {
		drop[id] = true
	}
	kept := t.allocs[:0:0]
	for _, a := range t.allocs {
		if !drop[a.StudentID] {
			kept = append(kept, a)
		}
	}
	t.allocs = kept
	return nil
}

func (t *memTx) InsertAllocations(_ context.Context, allocs []model.Allocation) error {
	if t.s.failInsert != nil {
		return t.s.failInsert
	}
	for _, a := range allocs {
		for _, b := range t.allocs {
			sameSeat := a.RoomID == b.RoomID && a.SeatNumber == b.SeatNumber && t.datasetOf(a) == t.datasetOf(b)
			if a.StudentID == b.StudentID || sameSeat {
				return errors.New("duplicate allocation")
			}
		}
		t.allocs = append(t.allocs, a)
	}
	return nil
}

func (t *memTx) InsertRun(_ context.Context, run model.AllocationRun) error {
	t.runs = append(t.runs, run)
	return nil
}

func room(id uint64, number string, capacity uint32, available bool) model.Room {
	return model.Room{ID: id, RoomNumber: number, Capacity: capacity, IsAvailable: available}
}

func student(id uint64, reg, course string) model.Student {
	return model.Student{ID: id, DatasetID: 1, RegisterNo: reg, CourseCode: course}
}

// seatsByReg returns "room/seat" per register_no for committed allocations.
func (m *memStore) seatsByReg() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make(map[uint64]string)
	for _, r := range m.rooms {
		rooms[r.ID] = r.RoomNumber
	}
	regs := make(map[uint64]string)
	for _, s := range m.students {
		regs[s.ID] = s.RegisterNo
	}
	out := make(map[string]string)
	for _, a := range m.allocs {
		out[regs[a.StudentID]] = rooms[a.RoomID] + "/" + strconv.Itoa(int(a.SeatNumber))
	}
	return out
}
