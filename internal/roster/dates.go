package roster

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Layouts are tried in order; the first that parses wins.  Slash dates are
// read month-first before day-first, so "03/04/2025" is March 4.
var examDateLayouts = []string{"2006-01-02", "02-01-2006", "01/02/2006", "02/01/2006"}

// Birth dates additionally accept a two-digit year.
var birthDateLayouts = append(append([]string(nil), examDateLayouts...), "02/01/06")

var errBadDate = errors.New("unrecognized date")

// ParseExamDate reads an exam date in any supported layout.
func ParseExamDate(s string) (time.Time, error) { return parseDate(s, examDateLayouts) }

// ParseBirthDate reads a date of birth in any supported layout.
func ParseBirthDate(s string) (time.Time, error) { return parseDate(s, birthDateLayouts) }

func parseDate(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	// spreadsheets often export "2003-04-05 00:00:00"
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, ok := excelSerial(s); ok {
		return t, nil
	}
	return time.Time{}, errBadDate
}

// excelSerial reads an .xlsx date cell's raw value, days since 1899-12-30.
// Only whole days from 1900 through 2099 are taken as dates.
func excelSerial(s string) (time.Time, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 1 || n >= 73051 || n != float64(int64(n)) {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(n, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// splitDateSession splits a combined "2025-12-15-Morning" cell at its last
// dash into date and session.
func splitDateSession(s string) (date, session string, ok bool) {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, '-')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
}
