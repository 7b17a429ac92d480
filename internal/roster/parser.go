// Package roster reads the sheets admins upload, as CSV or .xlsx: the
// student roster and pre-assigned seating.  Parsing never touches storage; it turns a file into
// validated values plus one RowError per rejected row.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iliyamo/exam-seating/internal/model"
)

// ErrEmptyFile is returned for a file with no header row.
var ErrEmptyFile = errors.New("file is empty")

// MissingColumnsError is returned when required columns are absent, which
// would otherwise reject every row.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// Parsed is the outcome of reading a roster file.
type Parsed struct {
	Rows     int // data rows seen, blank lines excluded
	Students []model.Student
	Errors   []model.RowError
}

// studentRow is the raw text of one roster row, validated with struct tags.
type studentRow struct {
	RegisterNo  string `col:"register_no" validate:"required,max=32,regno"`
	Name        string `col:"student_name" validate:"required,max=255"`
	DateOfBirth string `col:"date_of_birth" validate:"required"`
	CourseCode  string `col:"course_code" validate:"required,max=32"`
	CourseTitle string `col:"course_title" validate:"required,max=255"`
	ExamDate    string `col:"exam_date" validate:"required"`
	ExamSession string `col:"exam_session" validate:"required,max=32"`
}

// readHeader returns the column map of the first row.
func readHeader(src RowSource) (map[string]int, error) {
	header, _, err := src.Next()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return mapHeader(header), nil
}

// nextRow skips blank rows.  A malformed row comes back as rowErr; io.EOF
// and read failures come back as err.
func nextRow(src RowSource) (rec []string, line int, rowErr *model.RowError, err error) {
	for {
		rec, line, err = src.Next()
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, line, &model.RowError{Row: perr.Line, Kind: model.RowInvalidField, Message: perr.Err.Error()}, nil
			}
			return nil, line, nil, err
		}
		if !blank(rec) {
			return rec, line, nil, nil
		}
	}
}

// ParseStudents reads a roster CSV.
func ParseStudents(r io.Reader) (Parsed, error) { return ParseStudentRows(NewCSVRows(r)) }

// ParseStudentRows reads a roster from any RowSource.  A row that fails
// validation is reported and skipped; the rest are returned in file order.
// When the same register_no appears twice, the first row is kept and later
// ones are reported as duplicates.
func ParseStudentRows(src RowSource) (Parsed, error) {
	cols, err := readHeader(src)
	if err != nil {
		return Parsed{}, err
	}
	if missing := missingStudentColumns(cols); len(missing) > 0 {
		return Parsed{}, &MissingColumnsError{Columns: missing}
	}

	var (
		out  Parsed
		seen = make(map[string]int)
	)
	for {
		rec, line, rowErr, err := nextRow(src)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Parsed{}, fmt.Errorf("read row: %w", err)
		}
		out.Rows++
		if rowErr != nil {
			out.Errors = append(out.Errors, *rowErr)
			continue
		}

		raw := rowFrom(rec, cols)
		if err := validate.Struct(raw); err != nil {
			out.Errors = append(out.Errors, rowErrors(err, line, raw.RegisterNo)...)
			continue
		}
		st, rowErr := toStudent(raw, line)
		if rowErr != nil {
			out.Errors = append(out.Errors, *rowErr)
			continue
		}
		if first, dup := seen[st.RegisterNo]; dup {
			out.Errors = append(out.Errors, model.RowError{
				Row: line, RegisterNo: st.RegisterNo, Kind: model.RowDuplicate, Field: colRegisterNo,
				Message: fmt.Sprintf("register_no %s already appears on row %d", st.RegisterNo, first),
			})
			continue
		}
		seen[st.RegisterNo] = line
		out.Students = append(out.Students, st)
	}
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Row < out.Errors[j].Row })
	return out, nil
}

func missingStudentColumns(cols map[string]int) []string {
	var missing []string
	for _, c := range []string{colRegisterNo, colName, colDateOfBirth, colCourseCode, colCourseTitle} {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	_, hasCombined := cols[colDateSession]
	for _, c := range []string{colExamDate, colExamSession} {
		if _, ok := cols[c]; !ok && !hasCombined {
			missing = append(missing, c)
		}
	}
	return missing
}

func cell(rec []string, cols map[string]int, col string) string {
	i, ok := cols[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func rowFrom(rec []string, cols map[string]int) studentRow {
	row := studentRow{
		RegisterNo:  NormalizeRegisterNo(cell(rec, cols, colRegisterNo)),
		Name:        cell(rec, cols, colName),
		DateOfBirth: cell(rec, cols, colDateOfBirth),
		CourseCode:  strings.ToUpper(cell(rec, cols, colCourseCode)),
		CourseTitle: cell(rec, cols, colCourseTitle),
		ExamDate:    cell(rec, cols, colExamDate),
		ExamSession: cell(rec, cols, colExamSession),
	}
	if combined := cell(rec, cols, colDateSession); combined != "" && (row.ExamDate == "" || row.ExamSession == "") {
		if date, session, ok := splitDateSession(combined); ok {
			if row.ExamDate == "" {
				row.ExamDate = date
			}
			if row.ExamSession == "" {
				row.ExamSession = session
			}
		}
	}
	return row
}

func toStudent(raw studentRow, line int) (model.Student, *model.RowError) {
	dob, err := ParseBirthDate(raw.DateOfBirth)
	if err != nil {
		return model.Student{}, &model.RowError{Row: line, RegisterNo: raw.RegisterNo, Kind: model.RowInvalidField,
			Field: colDateOfBirth, Message: "date_of_birth " + raw.DateOfBirth + " is not a valid date"}
	}
	exam, err := ParseExamDate(raw.ExamDate)
	if err != nil {
		return model.Student{}, &model.RowError{Row: line, RegisterNo: raw.RegisterNo, Kind: model.RowInvalidField,
			Field: colExamDate, Message: "exam_date " + raw.ExamDate + " is not a valid date"}
	}
	return model.Student{
		RegisterNo:  raw.RegisterNo,
		Name:        raw.Name,
		DateOfBirth: dob,
		CourseCode:  raw.CourseCode,
		CourseTitle: raw.CourseTitle,
		ExamDate:    exam,
		ExamSession: raw.ExamSession,
	}, nil
}

// ValidateStudent checks a single student built outside a CSV, such as a
// record created through the admin API.  Row is left at zero.
func ValidateStudent(s model.Student) []model.RowError {
	raw := studentRow{
		RegisterNo: s.RegisterNo, Name: s.Name, CourseCode: s.CourseCode, CourseTitle: s.CourseTitle,
		ExamSession: s.ExamSession, DateOfBirth: "set", ExamDate: "set",
	}
	if s.DateOfBirth.IsZero() {
		raw.DateOfBirth = ""
	}
	if s.ExamDate.IsZero() {
		raw.ExamDate = ""
	}
	if err := validate.Struct(raw); err != nil {
		return rowErrors(err, 0, s.RegisterNo)
	}
	return nil
}
