package allocation

import (
	"sort"

	"github.com/iliyamo/exam-seating/internal/model"
)

// Assignment places one student in one seat.
type Assignment struct {
	Student    model.Student
	Room       model.Room
	SeatNumber uint32
}

// Plan is the outcome of a greedy fill.
type Plan struct {
	Assignments []Assignment
	Shortfall   int // students left without a seat
}

// Occupancy lists the seat numbers already taken, per room id.
type Occupancy map[uint64]map[uint32]bool

// OccupancyOf builds an Occupancy from committed allocations.
func OccupancyOf(allocs []model.Allocation) Occupancy {
	occ := make(Occupancy)
	for _, a := range allocs {
		occ.take(a.RoomID, a.SeatNumber)
	}
	return occ
}

func (o Occupancy) take(roomID uint64, seat uint32) {
	seats := o[roomID]
	if seats == nil {
		seats = make(map[uint32]bool)
		o[roomID] = seats
	}
	seats[seat] = true
}

// Taken reports whether the seat is occupied.
func (o Occupancy) Taken(roomID uint64, seat uint32) bool { return o[roomID][seat] }

// FreeSeats returns how many seats in 1..capacity are still open.
func (o Occupancy) FreeSeats(room model.Room) int {
	used := 0
	for seat := range o[room.ID] {
		if seat >= 1 && seat <= room.Capacity {
			used++
		}
	}
	return int(room.Capacity) - used
}

// Fill seats students, in the order given, into rooms sorted by
// room_number.  Each room is filled to capacity before the next one is
// opened, and inside a room the lowest free seat numbers are used first.
// Rooms that are not available are skipped.  Occupied seats count against
// capacity.  occ is not modified.
func Fill(rooms []model.Room, occ Occupancy, students []model.Student) Plan {
	ordered := make([]model.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.IsAvailable && r.Capacity > 0 {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].RoomNumber < ordered[j].RoomNumber })

	plan := Plan{Assignments: make([]Assignment, 0, len(students))}
	next := 0
	for _, room := range ordered {
		if next == len(students) {
			break
		}
		for seat := uint32(1); seat <= room.Capacity && next < len(students); seat++ {
			if occ.Taken(room.ID, seat) {
				continue
			}
			plan.Assignments = append(plan.Assignments, Assignment{
				Student:    students[next],
				Room:       room,
				SeatNumber: seat,
			})
			next++
		}
	}
	plan.Shortfall = len(students) - next
	return plan
}
