package allocation

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/exam-seating/internal/model"
)

// SeatRequest asks for a specific seat, as read from a seating CSV.
type SeatRequest struct {
	Row        int
	RegisterNo string
	RoomNumber string
	SeatNumber uint32
}

// ImportResult reports a seating import.  Applied counts rows now reflected
// in storage, including rows that already matched.
type ImportResult struct {
	RunID    string
	Dataset  string
	Applied  int
	Rejected int
	Errors   []model.RowError
	Placed   []Placed
}

type seatKey struct {
	room uint64
	seat uint32
}

// seatClaim is a row that passed the static checks.
type seatClaim struct {
	req     SeatRequest
	reg     string
	student model.Student
	room    model.Room
	key     seatKey
}

// Import applies pre-assigned seats under the same lock and transaction
// rules as a run, within the active dataset.  A row is rejected when its
// student or room is unknown, the room is not available, the seat is outside
// 1..capacity, or the seat stays with another student.  Students named in
// the file give up their current seat before any claim is checked, so the
// outcome does not depend on row order; when two rows claim one seat the
// earlier row wins.  Valid rows commit together.
func (e *Engine) Import(ctx context.Context, reqs []SeatRequest) (ImportResult, error) {
	var out ImportResult

	runCtx, done, err := e.acquire(ctx)
	if err != nil {
		return out, err
	}
	defer done()

	started := e.now()
	runID := e.newID()
	err = e.store.WithTx(runCtx, func(ctx context.Context, tx Tx) error {
		res := ImportResult{RunID: runID}

		ds, err := tx.ActiveDataset(ctx)
		if err != nil {
			return err
		}
		res.Dataset = ds.Name
		rooms, err := tx.LockRooms(ctx)
		if err != nil {
			return fmt.Errorf("load rooms: %w", err)
		}
		roomByNumber := make(map[string]model.Room, len(rooms))
		for _, r := range rooms {
			roomByNumber[normalizeRegisterNo(r.RoomNumber)] = r
		}

		regs := make([]string, 0, len(reqs))
		for _, r := range reqs {
			regs = append(regs, normalizeRegisterNo(r.RegisterNo))
		}
		students, err := tx.StudentsByRegisterNo(ctx, ds.ID, regs)
		if err != nil {
			return fmt.Errorf("load students: %w", err)
		}
		studentByReg := make(map[string]model.Student, len(students))
		for _, s := range students {
			studentByReg[s.RegisterNo] = s
		}

		existing, err := tx.Allocations(ctx, ds.ID)
		if err != nil {
			return fmt.Errorf("load allocations: %w", err)
		}
		current := make(map[uint64]seatKey, len(existing))
		for _, a := range existing {
			current[a.StudentID] = seatKey{a.RoomID, a.SeatNumber}
		}

		reject := func(req SeatRequest, field, msg string) {
			res.Errors = append(res.Errors, model.RowError{
				Row: req.Row, RegisterNo: req.RegisterNo, Kind: model.RowInvalidField, Field: field, Message: msg,
			})
		}

		claims := checkRows(reqs, studentByReg, roomByNumber, reject)
		accepted := settleClaims(claims, current)

		var (
			moved  []uint64
			allocs []model.Allocation
		)
		for i, c := range claims {
			if !accepted[i] {
				reject(c.req, "seat_no", fmt.Sprintf("seat %d in room %s is already taken", c.key.seat, c.room.RoomNumber))
				continue
			}
			res.Applied++
			res.Placed = append(res.Placed, Placed{Room: c.room.RoomNumber, RegisterNo: c.reg, SeatNumber: c.key.seat})
			if prev, had := current[c.student.ID]; had {
				if prev == c.key {
					continue
				}
				moved = append(moved, c.student.ID)
			}
			allocs = append(allocs, model.Allocation{
				DatasetID: ds.ID, StudentID: c.student.ID, RoomID: c.room.ID, SeatNumber: c.key.seat, RunID: runID,
			})
		}
		res.Rejected = len(res.Errors)
		sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Row < res.Errors[j].Row })

		// every release lands before any claim
		if len(moved) > 0 {
			if err := tx.DeleteAllocationsFor(ctx, moved); err != nil {
				return fmt.Errorf("release previous seats: %w", err)
			}
		}
		if len(allocs) > 0 {
			if err := tx.InsertAllocations(ctx, allocs); err != nil {
				return fmt.Errorf("insert allocations: %w", err)
			}
		}
		if err := tx.InsertRun(ctx, model.AllocationRun{
			ID:             runID,
			DatasetID:      ds.ID,
			Mode:           model.RunImport,
			Strategy:       "csv",
			TotalAllocated: len(allocs),
			StartedAt:      started,
			FinishedAt:     e.now(),
		}); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		out = res
		return nil
	})
	if err != nil {
		return ImportResult{}, e.classify(runCtx, err)
	}
	return out, nil
}

// checkRows rejects rows that fail on their own and returns the rest in
// file order.
func checkRows(reqs []SeatRequest, students map[string]model.Student, rooms map[string]model.Room,
	reject func(SeatRequest, string, string)) []seatClaim {
	seen := make(map[string]bool, len(reqs))
	claims := make([]seatClaim, 0, len(reqs))
	for _, req := range reqs {
		reg := normalizeRegisterNo(req.RegisterNo)
		student, ok := students[reg]
		if !ok {
			reject(req, "register_no", "unknown register_no "+reg)
			continue
		}
		if seen[reg] {
			reject(req, "register_no", "register_no "+reg+" appears more than once")
			continue
		}
		room, ok := rooms[normalizeRegisterNo(req.RoomNumber)]
		if !ok {
			reject(req, "hall_no", "unknown room "+req.RoomNumber)
			continue
		}
		if !room.IsAvailable {
			reject(req, "hall_no", "room "+room.RoomNumber+" is not available")
			continue
		}
		if req.SeatNumber < 1 || req.SeatNumber > room.Capacity {
			reject(req, "seat_no", fmt.Sprintf("seat %d outside 1..%d in room %s", req.SeatNumber, room.Capacity, room.RoomNumber))
			continue
		}
		seen[reg] = true
		claims = append(claims, seatClaim{
			req: req, reg: reg, student: student, room: room, key: seatKey{room.ID, req.SeatNumber},
		})
	}
	return claims
}

// settleClaims decides which claims hold.  Students with a live claim have
// vacated their seat; everyone else keeps theirs.  A claim fails on a seat
// kept by someone else or claimed by an earlier row.  A failed claim puts its
// student back in their old seat, which can fail further claims, so the pass
// repeats until nothing changes.  Claims only ever go from live to failed,
// so this ends after at most len(claims)+1 passes.
func settleClaims(claims []seatClaim, current map[uint64]seatKey) []bool {
	live := make([]bool, len(claims))
	for i := range live {
		live[i] = true
	}
	for {
		vacated := make(map[uint64]bool, len(claims))
		for i, c := range claims {
			if live[i] {
				vacated[c.student.ID] = true
			}
		}
		kept := make(map[seatKey]uint64, len(current))
		for id, k := range current {
			if !vacated[id] {
				kept[k] = id
			}
		}
		claimed := make(map[seatKey]bool, len(claims))
		changed := false
		for i, c := range claims {
			if !live[i] {
				continue
			}
			if _, held := kept[c.key]; held || claimed[c.key] {
				live[i] = false
				changed = true
				continue
			}
			claimed[c.key] = true
		}
		if !changed {
			return live
		}
	}
}
