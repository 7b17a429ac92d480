package service

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/exam-seating/internal/allocation"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/queue"
	"github.com/iliyamo/exam-seating/internal/repository"
)

type countingCache struct{ n int }

func (c *countingCache) Invalidate(context.Context) { c.n++ }

type fakeRooms struct {
	rooms  []model.Room
	nextID uint64
}

func (f *fakeRooms) Create(_ context.Context, r *model.Room) error {
	for _, x := range f.rooms {
		if x.RoomNumber == r.RoomNumber {
			return repository.ErrRoomExists
		}
	}
	f.nextID++
	r.ID = f.nextID
	f.rooms = append(f.rooms, *r)
	return nil
}

func (f *fakeRooms) List(context.Context) ([]model.Room, error) {
	out := append([]model.Room(nil), f.rooms...)
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

func (f *fakeRooms) Toggle(_ context.Context, id uint64) (*model.Room, error) {
	for i := range f.rooms {
		if f.rooms[i].ID == id {
			f.rooms[i].IsAvailable = !f.rooms[i].IsAvailable
			r := f.rooms[i]
			return &r, nil
		}
	}
	return nil, repository.ErrRoomNotFound
}

func (f *fakeRooms) SetAllAvailable(_ context.Context, v bool) (int64, error) {
	var n int64
	for i := range f.rooms {
		if f.rooms[i].IsAvailable != v {
			f.rooms[i].IsAvailable = v
			n++
		}
	}
	return n, nil
}

type fakeUpserter struct {
	byReg map[string]model.Student
	err   error
}

func (f *fakeUpserter) UpsertStudents(_ context.Context, students []model.Student) (string, int, int, error) {
	if f.err != nil {
		return "", 0, 0, f.err
	}
	if f.byReg == nil {
		f.byReg = map[string]model.Student{}
	}
	var created, updated int
	for _, s := range students {
		old, ok := f.byReg[s.RegisterNo]
		switch {
		case !ok:
			created++
		case old.Name != s.Name || old.CourseTitle != s.CourseTitle || old.CourseCode != s.CourseCode ||
			old.ExamSession != s.ExamSession || !old.ExamDate.Equal(s.ExamDate) || !old.DateOfBirth.Equal(s.DateOfBirth):
			updated++
		default:
			continue
		}
		f.byReg[s.RegisterNo] = s
	}
	return "End Semester - test", created, updated, nil
}

type fakeAllocator struct {
	result   allocation.Result
	err      error
	imported []allocation.SeatRequest
	importFn func([]allocation.SeatRequest) (allocation.ImportResult, error)
}

func (f *fakeAllocator) Generate(context.Context) (allocation.Result, error) { return f.result, f.err }
func (f *fakeAllocator) Refresh(context.Context) (allocation.Result, error)  { return f.result, f.err }

func (f *fakeAllocator) Import(_ context.Context, reqs []allocation.SeatRequest) (allocation.ImportResult, error) {
	f.imported = reqs
	return f.importFn(reqs)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.AllocationCompletedEvent
	err    error
}

func (f *fakePublisher) PublishAllocationCompleted(_ context.Context, ev queue.AllocationCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

type fakeStaff map[string]model.StaffAccount

func (f fakeStaff) GetByUsername(_ context.Context, u string) (model.StaffAccount, error) {
	a, ok := f[u]
	if !ok {
		return model.StaffAccount{}, repository.ErrStaffNotFound
	}
	return a, nil
}

type fakeSessions struct {
	byID map[string]model.Session
}

func newFakeSessions() *fakeSessions { return &fakeSessions{byID: map[string]model.Session{}} }

func (f *fakeSessions) Create(_ context.Context, s model.Session) error {
	f.byID[s.ID] = s
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (model.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return model.Session{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) Revoke(_ context.Context, id string) error {
	s, ok := f.byID[id]
	if !ok {
		return nil
	}
	now := s.ExpiresAt.Add(-1)
	s.RevokedAt = &now
	f.byID[id] = s
	return nil
}

// fakeStudents backs both RecordFinder and StudentStore.
type fakeStudents struct {
	recs   map[uint64]model.StudentRecord
	nextID uint64
}

func newFakeStudents(recs ...model.StudentRecord) *fakeStudents {
	f := &fakeStudents{recs: map[uint64]model.StudentRecord{}}
	for _, r := range recs {
		f.nextID++
		r.ID = f.nextID
		f.recs[r.ID] = r
	}
	return f
}

func (f *fakeStudents) GetRecordByRegisterNo(_ context.Context, reg string) (model.StudentRecord, error) {
	for _, r := range f.recs {
		if r.RegisterNo == reg {
			return r, nil
		}
	}
	return model.StudentRecord{}, repository.ErrStudentNotFound
}

func (f *fakeStudents) Create(_ context.Context, s *model.Student) error {
	for _, r := range f.recs {
		if r.RegisterNo == s.RegisterNo {
			return repository.ErrStudentExists
		}
	}
	f.nextID++
	s.ID = f.nextID
	f.recs[s.ID] = model.StudentRecord{Student: *s}
	return nil
}

func (f *fakeStudents) Update(_ context.Context, s model.Student) error {
	rec, ok := f.recs[s.ID]
	if !ok {
		return repository.ErrStudentNotFound
	}
	for id, r := range f.recs {
		if id != s.ID && r.RegisterNo == s.RegisterNo {
			return repository.ErrStudentExists
		}
	}
	rec.Student = s
	f.recs[s.ID] = rec
	return nil
}

func (f *fakeStudents) Delete(_ context.Context, id uint64) error {
	if _, ok := f.recs[id]; !ok {
		return repository.ErrStudentNotFound
	}
	delete(f.recs, id)
	return nil
}

func (f *fakeStudents) GetRecord(_ context.Context, id uint64) (model.StudentRecord, error) {
	r, ok := f.recs[id]
	if !ok {
		return model.StudentRecord{}, repository.ErrStudentNotFound
	}
	return r, nil
}

func (f *fakeStudents) ListRecords(context.Context) ([]model.StudentRecord, error) {
	out := make([]model.StudentRecord, 0, len(f.recs))
	for _, r := range f.recs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisterNo < out[j].RegisterNo })
	return out, nil
}
