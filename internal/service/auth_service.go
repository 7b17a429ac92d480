package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/exam-seating/internal/metrics"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/utils"
)

// StaffFinder looks up admin and faculty accounts.
type StaffFinder interface {
	GetByUsername(ctx context.Context, username string) (model.StaffAccount, error)
}

// SessionStore persists the server half of each login.
type SessionStore interface {
	Create(ctx context.Context, s model.Session) error
	Get(ctx context.Context, id string) (model.Session, error)
	Revoke(ctx context.Context, id string) error
}

// RecordFinder resolves a student and their placement by register number.
type RecordFinder interface {
	GetRecordByRegisterNo(ctx context.Context, registerNo string) (model.StudentRecord, error)
}

// Login is what a successful sign-in hands back.
type Login struct {
	Token   string
	Expires time.Time
	Role    model.Role
}

// Principal is the authenticated caller of a request.
type Principal struct {
	SessionID string
	Role      model.Role
	Subject   string
}

// AuthService verifies credentials and manages sessions.
type AuthService struct {
	staff    StaffFinder
	students RecordFinder
	sessions SessionStore
	secret   string
	ttl      time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAuthService(staff StaffFinder, students RecordFinder, sessions SessionStore, secret string, ttl time.Duration, m *metrics.Metrics) *AuthService {
	return &AuthService{
		staff: staff, students: students, sessions: sessions,
		secret: secret, ttl: ttl, metrics: m,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// StaffLogin checks username and password and that the account holds role.
// An admin endpoint therefore refuses a faculty account with the same
// generic error as a wrong password.
func (s *AuthService) StaffLogin(ctx context.Context, role model.Role, username, password string) (Login, error) {
	if !role.IsStaff() {
		return Login{}, ErrInvalidCredentials
	}
	acct, err := s.staff.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrStaffNotFound) {
			return Login{}, err
		}
		utils.BurnPasswordCheck(password)
		s.metrics.ObserveLogin(role.String(), false)
		return Login{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(acct.PasswordHash, password) || !acct.IsActive || acct.Role != role {
		s.metrics.ObserveLogin(role.String(), false)
		return Login{}, ErrInvalidCredentials
	}
	login, err := s.issue(ctx, role, strconv.FormatUint(acct.ID, 10))
	s.metrics.ObserveLogin(role.String(), err == nil)
	return login, err
}

// StudentLogin matches a register number and a YYYY-MM-DD date of birth.
// Unknown register numbers and wrong dates fail identically.
func (s *AuthService) StudentLogin(ctx context.Context, registerNo, dateOfBirth string) (Login, model.StudentRecord, error) {
	dob, err := time.Parse(model.DateLayout, strings.TrimSpace(dateOfBirth))
	if err != nil {
		s.metrics.ObserveLogin(model.RoleStudent.String(), false)
		return Login{}, model.StudentRecord{}, ErrInvalidCredentials
	}
	rec, err := s.students.GetRecordByRegisterNo(ctx, registerNo)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			s.metrics.ObserveLogin(model.RoleStudent.String(), false)
			return Login{}, model.StudentRecord{}, ErrInvalidCredentials
		}
		return Login{}, model.StudentRecord{}, err
	}
	if rec.DateOfBirth.Format(model.DateLayout) != dob.Format(model.DateLayout) {
		s.metrics.ObserveLogin(model.RoleStudent.String(), false)
		return Login{}, model.StudentRecord{}, ErrInvalidCredentials
	}
	login, err := s.issue(ctx, model.RoleStudent, rec.RegisterNo)
	s.metrics.ObserveLogin(model.RoleStudent.String(), err == nil)
	if err != nil {
		return Login{}, model.StudentRecord{}, err
	}
	return login, rec, nil
}

func (s *AuthService) issue(ctx context.Context, role model.Role, subject string) (Login, error) {
	jti := uuid.NewString()
	tok, err := utils.NewSessionToken(s.secret, subject, role.String(), jti, s.ttl)
	if err != nil {
		return Login{}, err
	}
	sess := model.Session{ID: jti, Role: role, Subject: subject, ExpiresAt: tok.Exp}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return Login{}, err
	}
	return Login{Token: tok.Token, Expires: tok.Exp, Role: role}, nil
}

// Authenticate resolves a bearer token to its principal.  The token must be
// well signed and unexpired and its session must still be active.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (Principal, error) {
	claims, err := utils.ParseSessionToken(s.secret, raw)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}
	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	sess, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	if !sess.Active(s.now()) || sess.Role != role || sess.Subject != claims.Subject {
		return Principal{}, ErrUnauthorized
	}
	return Principal{SessionID: sess.ID, Role: role, Subject: sess.Subject}, nil
}

// Logout revokes a session.  Revoking an unknown session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.Revoke(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil
	}
	return err
}

// Me returns the record of the student behind a STUDENT principal.
func (s *AuthService) Me(ctx context.Context, p Principal) (model.StudentRecord, error) {
	if p.Role != model.RoleStudent {
		return model.StudentRecord{}, ErrUnauthorized
	}
	rec, err := s.students.GetRecordByRegisterNo(ctx, p.Subject)
	if errors.Is(err, repository.ErrStudentNotFound) {
		// the record was deleted after login
		return model.StudentRecord{}, ErrUnauthorized
	}
	return rec, err
}
