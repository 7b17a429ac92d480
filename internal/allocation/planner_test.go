package allocation

import (
	"math/rand"
	"reflect"
	"strconv"
	"testing"

	"github.com/iliyamo/exam-seating/internal/model"
)

func TestFillTwoRoomsThreeStudents(t *testing.T) {
	rooms := []model.Room{room(2, "102", 1, true), room(1, "101", 2, true)}
	students := []model.Student{student(1, "A", "X"), student(2, "B", "X"), student(3, "C", "X")}

	plan := Fill(rooms, Occupancy{}, students)
	if plan.Shortfall != 0 || len(plan.Assignments) != 3 {
		t.Fatalf("expected 3 assignments and no shortfall, got %d/%d", len(plan.Assignments), plan.Shortfall)
	}
	want := []string{"A 101 1", "B 101 2", "C 102 1"}
	for i, a := range plan.Assignments {
		got := a.Student.RegisterNo + " " + a.Room.RoomNumber + " " + itoaSeat(a.SeatNumber)
		if got != want[i] {
			t.Fatalf("assignment %d: expected %q, got %q", i, want[i], got)
		}
	}
}

func TestFillSkipsUnavailableAndOccupiedSeats(t *testing.T) {
	rooms := []model.Room{room(1, "101", 3, true), room(2, "102", 5, false), room(3, "103", 2, true)}
	occ := OccupancyOf([]model.Allocation{{RoomID: 1, SeatNumber: 1}, {RoomID: 1, SeatNumber: 3}})
	students := []model.Student{student(1, "A", "X"), student(2, "B", "X"), student(3, "C", "X"), student(4, "D", "X")}

	plan := Fill(rooms, occ, students)
	if plan.Shortfall != 1 {
		t.Fatalf("expected shortfall 1, got %d", plan.Shortfall)
	}
	got := make([]string, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		if a.Room.ID == 2 {
			t.Fatalf("student %s placed in unavailable room", a.Student.RegisterNo)
		}
		got = append(got, a.Room.RoomNumber+"/"+itoaSeat(a.SeatNumber))
	}
	want := []string{"101/2", "103/1", "103/2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if occ.Taken(1, 2) {
		t.Fatalf("Fill must not modify the occupancy it was given")
	}
}

func TestFillNeverExceedsCapacity(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		var rooms []model.Room
		for i := 0; i < 1+r.Intn(6); i++ {
			rooms = append(rooms, room(uint64(i+1), string(rune('A'+i))+"01", uint32(1+r.Intn(5)), r.Intn(4) != 0))
		}
		var students []model.Student
		for i := 0; i < r.Intn(30); i++ {
			students = append(students, student(uint64(i+1), "S"+itoaSeat(uint32(100+i)), "X"))
		}
		plan := Fill(rooms, Occupancy{}, students)

		perRoom := make(map[uint64]int)
		seats := make(map[[2]uint64]bool)
		for _, a := range plan.Assignments {
			if !a.Room.IsAvailable {
				t.Fatalf("iteration %d: allocated into unavailable room %s", iter, a.Room.RoomNumber)
			}
			perRoom[a.Room.ID]++
			key := [2]uint64{a.Room.ID, uint64(a.SeatNumber)}
			if seats[key] {
				t.Fatalf("iteration %d: seat %v handed out twice", iter, key)
			}
			seats[key] = true
		}
		for _, rm := range rooms {
			if perRoom[rm.ID] > int(rm.Capacity) {
				t.Fatalf("iteration %d: room %s over capacity %d > %d", iter, rm.RoomNumber, perRoom[rm.ID], rm.Capacity)
			}
		}
		if len(plan.Assignments)+plan.Shortfall != len(students) {
			t.Fatalf("iteration %d: assignments + shortfall != students", iter)
		}
	}
}

func TestFreeSeatsIgnoresOutOfRangeOccupants(t *testing.T) {
	occ := OccupancyOf([]model.Allocation{{RoomID: 1, SeatNumber: 1}, {RoomID: 1, SeatNumber: 9}})
	if n := occ.FreeSeats(room(1, "101", 4, true)); n != 3 {
		t.Fatalf("expected 3 free seats, got %d", n)
	}
}

func itoaSeat(n uint32) string { return strconv.FormatUint(uint64(n), 10) }
