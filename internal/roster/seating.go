package roster

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/iliyamo/exam-seating/internal/allocation"
	"github.com/iliyamo/exam-seating/internal/model"
)

// ParsedSeating is the outcome of reading a seating CSV.
type ParsedSeating struct {
	Rows     int
	Requests []allocation.SeatRequest
	Errors   []model.RowError
}

type seatRow struct {
	RegisterNo string `col:"register_no" validate:"required,max=32,regno"`
	Hall       string `col:"hall_no" validate:"required,max=20"`
	Seat       string `col:"seat_no" validate:"required,number"`
}

// ParseSeating reads a seating CSV.
func ParseSeating(r io.Reader) (ParsedSeating, error) { return ParseSeatingRows(NewCSVRows(r)) }

// ParseSeatingRows reads register_no / hall / seat triples.  Header aliases
// such as "Roll No", "Exam Hall Number" and "Seat Number" are accepted.
func ParseSeatingRows(src RowSource) (ParsedSeating, error) {
	cols, err := readHeader(src)
	if err != nil {
		return ParsedSeating{}, err
	}
	var missing []string
	for _, c := range []string{colRegisterNo, colHall, colSeat} {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return ParsedSeating{}, &MissingColumnsError{Columns: missing}
	}

	var (
		out  ParsedSeating
		seen = make(map[string]int)
	)
	for {
		rec, line, rowErr, err := nextRow(src)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ParsedSeating{}, fmt.Errorf("read row: %w", err)
		}
		out.Rows++
		if rowErr != nil {
			out.Errors = append(out.Errors, *rowErr)
			continue
		}

		raw := seatRow{
			RegisterNo: NormalizeRegisterNo(cell(rec, cols, colRegisterNo)),
			Hall:       cell(rec, cols, colHall),
			Seat:       cell(rec, cols, colSeat),
		}
		if err := validate.Struct(raw); err != nil {
			out.Errors = append(out.Errors, rowErrors(err, line, raw.RegisterNo)...)
			continue
		}
		seat, err := strconv.ParseUint(raw.Seat, 10, 32)
		if err != nil || seat == 0 {
			out.Errors = append(out.Errors, model.RowError{Row: line, RegisterNo: raw.RegisterNo,
				Kind: model.RowInvalidField, Field: colSeat, Message: "seat_no must be a positive number"})
			continue
		}
		if first, dup := seen[raw.RegisterNo]; dup {
			out.Errors = append(out.Errors, model.RowError{
				Row: line, RegisterNo: raw.RegisterNo, Kind: model.RowDuplicate, Field: colRegisterNo,
				Message: fmt.Sprintf("register_no %s already appears on row %d", raw.RegisterNo, first),
			})
			continue
		}
		seen[raw.RegisterNo] = line
		out.Requests = append(out.Requests, allocation.SeatRequest{
			Row: line, RegisterNo: raw.RegisterNo, RoomNumber: raw.Hall, SeatNumber: uint32(seat),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Row < out.Errors[j].Row })
	return out, nil
}
