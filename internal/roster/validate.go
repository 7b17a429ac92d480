package roster

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/exam-seating/internal/model"
)

var registerNoPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("regno", func(fl validator.FieldLevel) bool {
		return registerNoPattern.MatchString(fl.Field().String())
	})
	// report the csv column name instead of the Go field name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("col")
	})
	return v
}

// rowErrors converts validator output into RowErrors.  A failed "required"
// is a missing field; anything else is an invalid one.
func rowErrors(err error, row int, registerNo string) []model.RowError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []model.RowError{{Row: row, RegisterNo: registerNo, Kind: model.RowInvalidField, Message: err.Error()}}
	}
	out := make([]model.RowError, 0, len(verrs))
	for _, fe := range verrs {
		re := model.RowError{Row: row, RegisterNo: registerNo, Field: fe.Field()}
		switch fe.Tag() {
		case "required":
			re.Kind = model.RowMissingField
			re.Message = fe.Field() + " is required"
		case "regno":
			re.Kind = model.RowInvalidField
			re.Message = fe.Field() + " must contain only letters and digits"
		case "max":
			re.Kind = model.RowInvalidField
			re.Message = fe.Field() + " is longer than " + fe.Param() + " characters"
		default:
			re.Kind = model.RowInvalidField
			re.Message = fe.Field() + " is invalid"
		}
		out = append(out, re)
	}
	return out
}

// NormalizeRegisterNo trims and upper-cases a register number.
func NormalizeRegisterNo(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// ValidRegisterNo reports whether s is a normalized register number.
func ValidRegisterNo(s string) bool { return registerNoPattern.MatchString(s) }
