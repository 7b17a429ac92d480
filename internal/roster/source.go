package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is the container of an uploaded sheet.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for file names that are neither .csv nor
// .xlsx.  Legacy binary .xls workbooks are not read; save them as .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// FormatOf picks the format from the file extension.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// RowSource yields the rows of one sheet, header first.  Next returns io.EOF
// after the last row.  line is the 1-based row number shown in errors.  A
// *csv.ParseError rejects one row and reading goes on.
type RowSource interface {
	Next() (rec []string, line int, err error)
	Close() error
}

// Open returns a RowSource over r in the format named by filename.
func Open(r io.Reader, filename string) (RowSource, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return NewXLSXRows(r)
	}
	return NewCSVRows(r), nil
}

type csvRows struct {
	cr *csv.Reader
}

// NewCSVRows reads comma-separated rows of varying width.
func NewCSVRows(r io.Reader) RowSource {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	return &csvRows{cr: cr}
}

func (c *csvRows) Next() ([]string, int, error) {
	rec, err := c.cr.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, perr.Line, err
		}
		return nil, 0, err
	}
	line, _ := c.cr.FieldPos(0)
	return rec, line, nil
}

func (c *csvRows) Close() error { return nil }

type xlsxRows struct {
	file *excelize.File
	rows *excelize.Rows
	line int
}

// NewXLSXRows reads the first worksheet of an .xlsx workbook.  Cells come
// back unformatted, so a date cell reads as its serial number; ParseExamDate
// and ParseBirthDate understand those.
func NewXLSXRows(r io.Reader) (RowSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, ErrEmptyFile
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return &xlsxRows{file: f, rows: rows}, nil
}

func (x *xlsxRows) Next() ([]string, int, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, 0, err
		}
		return nil, 0, io.EOF
	}
	x.line++
	rec, err := x.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, x.line, fmt.Errorf("row %d: %w", x.line, err)
	}
	return rec, x.line, nil
}

func (x *xlsxRows) Close() error {
	return errors.Join(x.rows.Close(), x.file.Close())
}
