package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/iliyamo/exam-seating/internal/allocation"
	"github.com/iliyamo/exam-seating/internal/database"
	"github.com/iliyamo/exam-seating/internal/model"
)

// openTestDB connects to EXAM_TEST_DSN, migrates, empties the tables and
// leaves one active dataset.  The test is skipped when the variable is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("EXAM_TEST_DSN")
	if dsn == "" {
		t.Skip("EXAM_TEST_DSN not set")
	}
	db, err := database.OpenDSN(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{"allocations", "allocation_runs", "students", "datasets", "rooms", "sessions", "staff_accounts"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean %s: %v", table, err)
		}
	}
	ds := model.Dataset{Name: "End Semester - test", ExamType: model.ExamEndSemester}
	if err := NewDatasetRepo(db).Create(ctx, &ds); err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("parse date %s: %v", s, err)
	}
	return d
}

func TestRoomRepoLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	rooms := NewRoomRepo(db)

	r := model.Room{RoomNumber: "101", Capacity: 30, IsAvailable: true}
	if err := rooms.Create(ctx, &r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ID == 0 || r.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", r)
	}
	dup := model.Room{RoomNumber: "101", Capacity: 10, IsAvailable: true}
	if err := rooms.Create(ctx, &dup); !errors.Is(err, ErrRoomExists) {
		t.Fatalf("expected ErrRoomExists, got %v", err)
	}
	toggled, err := rooms.Toggle(ctx, r.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsAvailable {
		t.Fatalf("expected room to be unavailable after toggle")
	}
	if _, err := rooms.Toggle(ctx, r.ID+1000); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if n, err := rooms.SetAllAvailable(ctx, true); err != nil || n != 1 {
		t.Fatalf("expected 1 room enabled, got %d, %v", n, err)
	}
}

func TestRosterUpsertIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewRosterStore(NewMySQLTxManager(db))

	students := []model.Student{{
		RegisterNo: "21CS001", Name: "Asha", DateOfBirth: mustDate(t, "2003-04-05"),
		CourseCode: "CS301", CourseTitle: "Compilers", ExamDate: mustDate(t, "2025-12-15"), ExamSession: "FN",
	}}
	dataset, created, updated, err := store.UpsertStudents(ctx, students)
	if err != nil || created != 1 || updated != 0 || dataset != "End Semester - test" {
		t.Fatalf("first upsert: dataset=%q created=%d updated=%d err=%v", dataset, created, updated, err)
	}
	_, created, updated, err = store.UpsertStudents(ctx, students)
	if err != nil || created != 0 || updated != 0 {
		t.Fatalf("re-upsert should change nothing: created=%d updated=%d err=%v", created, updated, err)
	}
	students[0].CourseTitle = "Compiler Design"
	_, created, updated, err = store.UpsertStudents(ctx, students)
	if err != nil || created != 0 || updated != 1 {
		t.Fatalf("changed upsert: created=%d updated=%d err=%v", created, updated, err)
	}
	rec, err := NewStudentRepo(db).GetRecordByRegisterNo(ctx, " 21cs001 ")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.CourseTitle != "Compiler Design" || rec.Placement != nil {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestSeatingStoreRunsEngine(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	rooms := NewRoomRepo(db)
	for _, r := range []model.Room{
		{RoomNumber: "101", Capacity: 2, IsAvailable: true},
		{RoomNumber: "102", Capacity: 1, IsAvailable: true},
	} {
		r := r
		if err := rooms.Create(ctx, &r); err != nil {
			t.Fatalf("create room: %v", err)
		}
	}
	var roster []model.Student
	for _, reg := range []string{"A", "B", "C"} {
		roster = append(roster, model.Student{
			RegisterNo: reg, Name: reg, DateOfBirth: mustDate(t, "2003-01-01"),
			CourseCode: "CS", CourseTitle: "CS", ExamDate: mustDate(t, "2025-12-15"), ExamSession: "FN",
		})
	}
	if _, _, _, err := NewRosterStore(NewMySQLTxManager(db)).UpsertStudents(ctx, roster); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	eng := allocation.NewEngine(NewSeatingStore(NewMySQLTxManager(db)), allocation.Sequential{})
	res, err := eng.Generate(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.TotalAllocated != 3 {
		t.Fatalf("expected 3 allocated, got %+v", res)
	}
	recs, err := NewStudentRepo(db).ListRecords(ctx)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	got := map[string]string{}
	for _, r := range recs {
		got[r.RegisterNo] = r.HallNumber() + "/" + r.SeatNumber()
	}
	want := map[string]string{"A": "101/1", "B": "101/2", "C": "102/1"}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("expected %s at %s, got %s", k, v, got[k])
		}
	}
	run, err := NewAllocationRepo(db).LatestRun(ctx)
	if err != nil || run == nil || run.ID != res.RunID {
		t.Fatalf("expected latest run %s, got %+v, %v", res.RunID, run, err)
	}
}

func TestDatasetsScopeRosterAndSeats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	txm := NewMySQLTxManager(db)
	datasets := NewDatasetStore(db, txm)
	roster := NewRosterStore(txm)
	eng := allocation.NewEngine(NewSeatingStore(txm), allocation.Sequential{})

	room := model.Room{RoomNumber: "101", Capacity: 2, IsAvailable: true}
	if err := NewRoomRepo(db).Create(ctx, &room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	first, err := datasets.Active(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	one := []model.Student{{
		RegisterNo: "A", Name: "A", DateOfBirth: mustDate(t, "2003-01-01"),
		CourseCode: "CS", CourseTitle: "CS", ExamDate: mustDate(t, "2025-12-15"), ExamSession: "FN",
	}}
	if _, _, _, err := roster.UpsertStudents(ctx, one); err != nil {
		t.Fatalf("upsert first: %v", err)
	}
	if _, err := eng.Generate(ctx); err != nil {
		t.Fatalf("generate first: %v", err)
	}

	second := model.Dataset{Name: "Arrear - test", ExamType: model.ExamArrear}
	if err := datasets.Create(ctx, &second); err != nil || !second.IsActive {
		t.Fatalf("create second: %+v, %v", second, err)
	}
	// same register_no, different dataset
	if _, created, _, err := roster.UpsertStudents(ctx, one); err != nil || created != 1 {
		t.Fatalf("upsert second: created=%d err=%v", created, err)
	}
	res, err := eng.Generate(ctx)
	if err != nil || res.DatasetID != second.ID || res.TotalAllocated != 1 {
		t.Fatalf("generate second: %+v, %v", res, err)
	}
	// rooms are shared but seats are counted per dataset
	rec, err := NewStudentRepo(db).GetRecordByRegisterNo(ctx, "A")
	if err != nil || rec.DatasetID != second.ID || rec.SeatNumber() != "1" {
		t.Fatalf("expected A at seat 1 of the second dataset, got %+v, %v", rec, err)
	}

	if _, err := datasets.Activate(ctx, first.ID); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if _, err := datasets.Activate(ctx, second.ID+1000); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
	if _, n, err := datasets.ClearStudents(ctx, second.ID); err != nil || n != 1 {
		t.Fatalf("clear second: n=%d err=%v", n, err)
	}
	recs, err := NewStudentRepo(db).ListRecords(ctx)
	if err != nil || len(recs) != 1 || recs[0].DatasetID != first.ID || recs[0].Placement == nil {
		t.Fatalf("expected the first dataset untouched, got %+v, %v", recs, err)
	}

	if _, err := datasets.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete active: %v", err)
	}
	active, err := datasets.Active(ctx)
	if err != nil || active.ID != second.ID {
		t.Fatalf("expected the remaining dataset to take over, got %+v, %v", active, err)
	}
	if _, err := datasets.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete last: %v", err)
	}
	if _, err := eng.Generate(ctx); !errors.Is(err, allocation.ErrNoActiveDataset) {
		t.Fatalf("expected ErrNoActiveDataset, got %v", err)
	}
}

func TestSessionRepoRevokeAndPurge(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepo(db)

	s := model.Session{ID: "11111111-1111-1111-1111-111111111111", Role: model.RoleAdmin, Subject: "1",
		ExpiresAt: time.Now().UTC().Add(time.Hour)}
	if err := sessions.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := sessions.Get(ctx, s.ID)
	if err != nil || !got.Active(time.Now().UTC()) {
		t.Fatalf("expected active session, got %+v, %v", got, err)
	}
	if err := sessions.Revoke(ctx, s.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got, _ = sessions.Get(ctx, s.ID)
	if got.Active(time.Now().UTC()) {
		t.Fatalf("expected revoked session")
	}
	if n, err := sessions.DeleteStale(ctx, time.Now().UTC().Add(time.Minute)); err != nil || n != 1 {
		t.Fatalf("expected 1 purged session, got %d, %v", n, err)
	}
	if _, err := sessions.Get(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStaffRepoCreateAndLookup(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	staff := NewStaffRepo(db)

	id, err := staff.Create(ctx, " Kgkite ", "pw-1", model.RoleAdmin, 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := staff.Create(ctx, "kgkite", "pw-2", model.RoleAdmin, 4); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
	acct, err := staff.GetByUsername(ctx, "KGKITE")
	if err != nil || acct.ID != id || acct.Role != model.RoleAdmin {
		t.Fatalf("unexpected account %+v, %v", acct, err)
	}
	if _, err := staff.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected ErrStaffNotFound, got %v", err)
	}
}
