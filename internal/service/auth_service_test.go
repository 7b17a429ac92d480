package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/utils"
)

func newAuth(t *testing.T) (*AuthService, *fakeSessions) {
	t.Helper()
	hash, err := utils.HashPassword("pw", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	staff := fakeStaff{
		"kgkite": {ID: 1, Username: "kgkite", PasswordHash: hash, Role: model.RoleAdmin, IsActive: true},
		"prof":   {ID: 2, Username: "prof", PasswordHash: hash, Role: model.RoleFaculty, IsActive: true},
		"gone":   {ID: 3, Username: "gone", PasswordHash: hash, Role: model.RoleAdmin, IsActive: false},
	}
	dob := time.Date(2003, 4, 5, 0, 0, 0, 0, time.UTC)
	students := newFakeStudents(model.StudentRecord{
		Student:   model.Student{RegisterNo: "21CS001", Name: "Asha", DateOfBirth: dob},
		Placement: &model.Placement{RoomNumber: "101", SeatNumber: 4},
	})
	sessions := newFakeSessions()
	return NewAuthService(staff, students, sessions, "secret", time.Hour, nil), sessions
}

func TestStaffLogin(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)

	login, err := auth.StaffLogin(ctx, model.RoleAdmin, "kgkite", "pw")
	if err != nil || login.Role != model.RoleAdmin || login.Token == "" {
		t.Fatalf("expected admin login, got %+v, %v", login, err)
	}
	cases := []struct {
		name           string
		role           model.Role
		user, password string
	}{
		{"wrong password", model.RoleAdmin, "kgkite", "nope"},
		{"unknown user", model.RoleAdmin, "nobody", "pw"},
		{"faculty on admin endpoint", model.RoleAdmin, "prof", "pw"},
		{"inactive account", model.RoleAdmin, "gone", "pw"},
		{"student role", model.RoleStudent, "kgkite", "pw"},
	}
	for _, tc := range cases {
		if _, err := auth.StaffLogin(ctx, tc.role, tc.user, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", tc.name, err)
		}
	}
	if _, err := auth.StaffLogin(ctx, model.RoleFaculty, "prof", "pw"); err != nil {
		t.Fatalf("faculty login: %v", err)
	}
}

func TestStudentLogin(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)

	login, rec, err := auth.StudentLogin(ctx, "21CS001", "2003-04-05")
	if err != nil {
		t.Fatalf("student login: %v", err)
	}
	if login.Role != model.RoleStudent || rec.HallNumber() != "101" || rec.SeatNumber() != "4" {
		t.Fatalf("unexpected login %+v / %+v", login, rec)
	}
	for _, tc := range [][2]string{
		{"21CS001", "2003-04-06"},
		{"21CS999", "2003-04-05"},
		{"21CS001", "05/04/2003"},
		{"21CS001", ""},
	} {
		_, _, err := auth.StudentLogin(ctx, tc[0], tc[1])
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("StudentLogin(%q, %q): expected ErrInvalidCredentials, got %v", tc[0], tc[1], err)
		}
	}
}

func TestAuthenticateAndLogout(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)

	login, _, err := auth.StudentLogin(ctx, "21CS001", "2003-04-05")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := auth.Authenticate(ctx, login.Token)
	if err != nil || p.Role != model.RoleStudent || p.Subject != "21CS001" {
		t.Fatalf("unexpected principal %+v, %v", p, err)
	}
	rec, err := auth.Me(ctx, p)
	if err != nil || rec.Name != "Asha" {
		t.Fatalf("unexpected me %+v, %v", rec, err)
	}

	if err := auth.Logout(ctx, p.SessionID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := auth.Authenticate(ctx, login.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
	if err := auth.Logout(ctx, "unknown"); err != nil {
		t.Fatalf("logout of unknown session should succeed, got %v", err)
	}
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)

	// well signed but no session row behind it
	tok, _ := utils.NewSessionToken("secret", "1", "ADMIN", "missing-jti", time.Minute)
	if _, err := auth.Authenticate(ctx, tok.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := auth.Authenticate(ctx, "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStaffLoginUnknownUserTakesAsLongAsWrongPassword(t *testing.T) {
	const cost = 10
	if err := utils.SetBurnCost(cost); err != nil {
		t.Fatalf("set burn cost: %v", err)
	}
	hash, err := utils.HashPassword("pw", cost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	staff := fakeStaff{"kgkite": {ID: 1, Username: "kgkite", PasswordHash: hash, Role: model.RoleAdmin, IsActive: true}}
	auth := NewAuthService(staff, newFakeStudents(), newFakeSessions(), "secret", time.Hour, nil)

	timeLogin := func(user string) time.Duration {
		best := time.Hour
		for i := 0; i < 3; i++ {
			start := time.Now()
			if _, err := auth.StaffLogin(context.Background(), model.RoleAdmin, user, "nope"); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("%s: expected ErrInvalidCredentials, got %v", user, err)
			}
			best = min(best, time.Since(start))
		}
		return best
	}
	known := timeLogin("kgkite")
	unknown := timeLogin("nobody")
	if unknown*3 < known || known*3 < unknown {
		t.Fatalf("unknown user took %v, wrong password took %v", unknown, known)
	}
}
