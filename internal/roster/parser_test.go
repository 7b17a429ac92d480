package roster

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/exam-seating/internal/model"
)

const rosterCSV = `Register No,Student Name,DOB,Course Code,Course Name,Exam Date,Session
21cs001,Asha Rao,2003-04-05,cs301,Compilers,2025-12-15,FN
21CS002,Bala K,05/04/2003,CS302,Networks,15-12-2025,AN

21CS001,Asha Again,2003-04-05,CS301,Compilers,2025-12-15,FN
21CS-003,Bad Reg,2003-04-05,CS301,Compilers,2025-12-15,FN
21CS004,,2003-04-05,CS301,Compilers,2025-12-15,FN
21CS005,Late Date,31/31/2003,CS301,Compilers,2025-12-15,FN
`

func TestParseStudentsMixedRows(t *testing.T) {
	got, err := ParseStudents(strings.NewReader(rosterCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Rows != 6 {
		t.Fatalf("expected 6 data rows, got %d", got.Rows)
	}
	if len(got.Students) != 2 {
		t.Fatalf("expected 2 accepted students, got %d", len(got.Students))
	}
	first := got.Students[0]
	if first.RegisterNo != "21CS001" || first.CourseCode != "CS301" || first.Name != "Asha Rao" {
		t.Fatalf("unexpected first student %+v", first)
	}
	if !first.ExamDate.Equal(time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected exam date %s", first.ExamDate)
	}
	second := got.Students[1]
	// slash dates are month-first
	if !second.DateOfBirth.Equal(time.Date(2003, 5, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date of birth %s", second.DateOfBirth)
	}

	want := []struct {
		row  int
		kind model.RowErrorKind
	}{
		{5, model.RowDuplicate},
		{6, model.RowInvalidField},
		{7, model.RowMissingField},
		{8, model.RowInvalidField},
	}
	if len(got.Errors) != len(want) {
		t.Fatalf("expected %d row errors, got %+v", len(want), got.Errors)
	}
	for i, w := range want {
		if got.Errors[i].Row != w.row || got.Errors[i].Kind != w.kind {
			t.Fatalf("error %d: expected row %d %s, got %+v", i, w.row, w.kind, got.Errors[i])
		}
	}
	if got.Errors[2].Field != "student_name" {
		t.Fatalf("expected missing student_name, got %q", got.Errors[2].Field)
	}
}

func TestParseStudentsCombinedDateSession(t *testing.T) {
	src := "Reg-No,Name,Date-of-Birth,Code,Title,Date-Session\nA1,X,2003-01-02,C1,T1,2025-12-15-Morning\n"
	got, err := ParseStudents(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Students) != 1 {
		t.Fatalf("expected one student, errors: %+v", got.Errors)
	}
	s := got.Students[0]
	if s.ExamSession != "Morning" || s.ExamDate.Format(model.DateLayout) != "2025-12-15" {
		t.Fatalf("unexpected split: %s %s", s.ExamDate.Format(model.DateLayout), s.ExamSession)
	}
}

func TestParseStudentsMissingColumns(t *testing.T) {
	_, err := ParseStudents(strings.NewReader("register_no,name\nA1,X\n"))
	var mc *MissingColumnsError
	if !errors.As(err, &mc) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	want := "missing required columns: date_of_birth, course_code, course_title, exam_date, exam_session"
	if mc.Error() != want {
		t.Fatalf("expected %q, got %q", want, mc.Error())
	}
}

func TestParseStudentsEmptyFile(t *testing.T) {
	if _, err := ParseStudents(strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Register-No":     "register no",
		"  REGISTER  NO ": "register no",
		"register_no":     "register no",
		"\ufeffRoll No":  "roll no",
	}
	for in, want := range cases {
		if got := normalizeHeader(in); got != want {
			t.Fatalf("normalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDates(t *testing.T) {
	for _, s := range []string{"2025-12-15", "15-12-2025", "12/15/2025", "15/12/2025", "2025-12-15 00:00:00"} {
		d, err := ParseExamDate(s)
		if err != nil || d.Format(model.DateLayout) != "2025-12-15" {
			t.Fatalf("ParseExamDate(%q) = %s, %v", s, d, err)
		}
	}
	if d, err := ParseBirthDate("05/04/03"); err != nil || d.Year() != 2003 {
		t.Fatalf("expected two-digit birth year, got %s, %v", d, err)
	}
	if _, err := ParseExamDate("05/04/03"); err == nil {
		t.Fatalf("two-digit years are only accepted for birth dates")
	}
	if d, err := ParseExamDate("46006"); err != nil || d.Format(model.DateLayout) != "2025-12-15" {
		t.Fatalf("expected spreadsheet serial to parse, got %s, %v", d, err)
	}
	for _, s := range []string{"46006.5", "0", "99999"} {
		if _, err := ParseExamDate(s); err == nil {
			t.Fatalf("ParseExamDate(%q) should fail", s)
		}
	}
}

func TestValidateStudent(t *testing.T) {
	s := model.Student{RegisterNo: "A1", Name: "X", CourseCode: "C", CourseTitle: "T", ExamSession: "FN",
		DateOfBirth: time.Now(), ExamDate: time.Now()}
	if errs := ValidateStudent(s); len(errs) != 0 {
		t.Fatalf("expected valid student, got %+v", errs)
	}
	s.RegisterNo = "a-1"
	s.ExamDate = time.Time{}
	errs := ValidateStudent(s)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %+v", errs)
	}
}
