package model

import "fmt"

// RowErrorKind classifies why an uploaded CSV row was rejected.
type RowErrorKind string

const (
	RowMissingField RowErrorKind = "MISSING_FIELD"
	RowInvalidField RowErrorKind = "INVALID_FIELD"
	RowDuplicate    RowErrorKind = "DUPLICATE"
)

// RowError reports one rejected row.  Row is 1-based and counts the header,
// so it matches the line number a spreadsheet shows.
type RowError struct {
	Row        int          `json:"row"`
	RegisterNo string       `json:"register_no,omitempty"`
	Kind       RowErrorKind `json:"kind"`
	Field      string       `json:"field,omitempty"`
	Message    string       `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}
