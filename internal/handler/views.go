package handler

import (
	"time"

	"github.com/iliyamo/exam-seating/internal/allocation"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/service"
)

type roomView struct {
	ID          uint64 `json:"id"`
	RoomNumber  string `json:"room_number"`
	Capacity    uint32 `json:"capacity"`
	IsAvailable bool   `json:"is_available"`
	Floor       string `json:"floor"`
}

func toRoomView(r model.Room) roomView {
	return roomView{ID: r.ID, RoomNumber: r.RoomNumber, Capacity: r.Capacity, IsAvailable: r.IsAvailable, Floor: r.Floor()}
}

// studentView is what a student sees.  Hall and seat read "Pending" until
// allocated.
type studentView struct {
	ID             uint64 `json:"id"`
	RegisterNo     string `json:"register_no"`
	StudentName    string `json:"student_name"`
	CourseCode     string `json:"course_code"`
	CourseTitle    string `json:"course_title"`
	ExamDate       string `json:"exam_date"`
	ExamSession    string `json:"exam_session"`
	ExamHallNumber string `json:"exam_hall_number"`
	ExamSeatNumber string `json:"exam_seat_number"`
}

// recordView adds the date of birth for staff.
type recordView struct {
	studentView
	DateOfBirth string `json:"date_of_birth"`
}

func toStudentView(r model.StudentRecord) studentView {
	return studentView{
		ID:             r.ID,
		RegisterNo:     r.RegisterNo,
		StudentName:    r.Name,
		CourseCode:     r.CourseCode,
		CourseTitle:    r.CourseTitle,
		ExamDate:       r.ExamDate.Format(model.DateLayout),
		ExamSession:    r.ExamSession,
		ExamHallNumber: r.HallNumber(),
		ExamSeatNumber: r.SeatNumber(),
	}
}

func toRecordView(r model.StudentRecord) recordView {
	return recordView{studentView: toStudentView(r), DateOfBirth: r.DateOfBirth.Format(model.DateLayout)}
}

type placedView struct {
	Room       string `json:"room"`
	RegisterNo string `json:"register_no"`
	SeatNumber uint32 `json:"seat_number"`
}

type resultView struct {
	Success        bool         `json:"success"`
	RunID          string       `json:"run_id,omitempty"`
	Dataset        string       `json:"dataset,omitempty"`
	Mode           string       `json:"mode"`
	Strategy       string       `json:"strategy"`
	TotalAllocated int          `json:"total_allocated"`
	Shortfall      int          `json:"shortfall"`
	TotalSeated    int          `json:"total_seated"`
	Cleared        int          `json:"cleared,omitempty"`
	RoomsUsed      []string     `json:"rooms_used"`
	Allocations    []placedView `json:"allocations"`
	Error          string       `json:"error,omitempty"`
}

func toResultView(r allocation.Result) resultView {
	v := resultView{
		Success:        r.Success,
		RunID:          r.RunID,
		Dataset:        r.Dataset,
		Mode:           string(r.Mode),
		Strategy:       r.Strategy,
		TotalAllocated: r.TotalAllocated,
		Shortfall:      r.Shortfall,
		TotalSeated:    r.TotalSeated,
		Cleared:        r.Cleared,
		RoomsUsed:      r.RoomsUsed,
		Allocations:    toPlacedViews(r.Allocations),
		Error:          r.Error,
	}
	if v.RoomsUsed == nil {
		v.RoomsUsed = []string{}
	}
	return v
}

func toPlacedViews(ps []allocation.Placed) []placedView {
	out := make([]placedView, 0, len(ps))
	for _, p := range ps {
		out = append(out, placedView{Room: p.Room, RegisterNo: p.RegisterNo, SeatNumber: p.SeatNumber})
	}
	return out
}

type courseView struct {
	CourseCode string `json:"course_code"`
	Total      int    `json:"total"`
	Allocated  int    `json:"allocated"`
	Pending    int    `json:"pending"`
}

type runView struct {
	ID             string    `json:"id"`
	Mode           string    `json:"mode"`
	Strategy       string    `json:"strategy"`
	TotalAllocated int       `json:"total_allocated"`
	Shortfall      int       `json:"shortfall"`
	FinishedAt     time.Time `json:"finished_at"`
}

type statusView struct {
	Students          int          `json:"students"`
	Pending           int          `json:"pending"`
	Allocated         int          `json:"allocated"`
	Rooms             int          `json:"rooms"`
	AvailableRooms    int          `json:"available_rooms"`
	AvailableCapacity int          `json:"available_capacity"`
	FreeSeats         int          `json:"free_seats"`
	Shortfall         int          `json:"shortfall"`
	Courses           []courseView `json:"courses"`
	LastRun           *runView     `json:"last_run"`
	Dataset           *datasetView `json:"dataset"`
}

func toStatusView(s service.Status) statusView {
	v := statusView{
		Students: s.Students, Pending: s.Pending, Allocated: s.Allocated,
		Rooms: s.Rooms, AvailableRooms: s.AvailableRooms, AvailableCapacity: s.AvailableCapacity,
		FreeSeats: s.FreeSeats, Shortfall: s.Shortfall,
		Courses: make([]courseView, 0, len(s.Courses)),
	}
	for _, c := range s.Courses {
		v.Courses = append(v.Courses, toCourseView(c))
	}
	if r := s.LastRun; r != nil {
		v.LastRun = &runView{ID: r.ID, Mode: string(r.Mode), Strategy: r.Strategy,
			TotalAllocated: r.TotalAllocated, Shortfall: r.Shortfall, FinishedAt: r.FinishedAt}
	}
	if s.Dataset != nil {
		d := toDatasetView(*s.Dataset)
		v.Dataset = &d
	}
	return v
}

func toCourseView(c repository.CourseCount) courseView {
	return courseView{CourseCode: c.CourseCode, Total: c.Total, Allocated: c.Allocated, Pending: c.Total - c.Allocated}
}
