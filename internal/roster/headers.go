package roster

import "strings"

// canonical column names
const (
	colRegisterNo  = "register_no"
	colName        = "student_name"
	colDateOfBirth = "date_of_birth"
	colCourseCode  = "course_code"
	colCourseTitle = "course_title"
	colExamDate    = "exam_date"
	colExamSession = "exam_session"
	colDateSession = "date_session"
	colHall        = "hall_no"
	colSeat        = "seat_no"
)

// aliases maps a normalized header to its canonical column.
var aliases = map[string]string{
	"register no": colRegisterNo, "registerno": colRegisterNo, "register number": colRegisterNo,
	"reg no": colRegisterNo, "regno": colRegisterNo, "roll no": colRegisterNo, "rollno": colRegisterNo,

	"student name": colName, "studentname": colName, "name": colName,

	"date of birth": colDateOfBirth, "dateofbirth": colDateOfBirth, "dob": colDateOfBirth,
	"birth date": colDateOfBirth,

	"course code": colCourseCode, "coursecode": colCourseCode, "code": colCourseCode,

	"course title": colCourseTitle, "coursetitle": colCourseTitle, "title": colCourseTitle,
	"course name": colCourseTitle,

	"exam date": colExamDate, "examdate": colExamDate, "date": colExamDate,

	"exam session": colExamSession, "examsession": colExamSession, "session": colExamSession,

	"date session": colDateSession,

	"hall no": colHall, "hall number": colHall, "hall": colHall, "exam hall": colHall,
	"exam hall number": colHall, "room": colHall, "room no": colHall, "room number": colHall,

	"seat no": colSeat, "seat number": colSeat, "seat": colSeat, "exam seat": colSeat,
	"exam seat number": colSeat,
}

// normalizeHeader lower-cases a header and treats '-', '_' and runs of
// spaces alike, so "Register-No", "register_no" and " REGISTER  NO" match.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("-", " ", "_", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// mapHeader returns canonical column -> index.  The first occurrence of a
// column wins; unknown headers are ignored.
func mapHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if col, ok := aliases[normalizeHeader(h)]; ok {
			if _, seen := idx[col]; !seen {
				idx[col] = i
			}
		}
	}
	return idx
}
