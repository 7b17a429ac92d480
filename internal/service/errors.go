// Package service holds the use cases behind the HTTP handlers.  Services
// depend on small storage interfaces so they can be tested with in-memory
// fakes; the MySQL repositories satisfy them in production.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/exam-seating/internal/model"
)

var (
	// ErrInvalidCredentials covers every login failure.  Callers must not
	// learn which part was wrong.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrUnauthorized means the token is missing, invalid, expired or its
	// session was revoked.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError is a client mistake.  Message is safe to return as is.
type ValidationError struct {
	Message string
	Rows    []model.RowError
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Invalidator drops cached reads after a write.  A nil Invalidator is
// allowed everywhere.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

func invalidate(ctx context.Context, inv Invalidator) {
	if inv != nil {
		inv.Invalidate(ctx)
	}
}

func joinFields(rows []model.RowError) string {
	fields := make([]string, 0, len(rows))
	for _, r := range rows {
		fields = append(fields, r.Message)
	}
	return strings.Join(fields, "; ")
}
