package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/service"
)

// Authenticator is the part of service.AuthService the handlers use.
type Authenticator interface {
	StaffLogin(ctx context.Context, role model.Role, username, password string) (service.Login, error)
	StudentLogin(ctx context.Context, registerNo, dateOfBirth string) (service.Login, model.StudentRecord, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, p service.Principal) (model.StudentRecord, error)
}

// AuthHandler serves login and logout for every role.
type AuthHandler struct {
	Auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler { return &AuthHandler{Auth: auth} }

type tokenView struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
	Role    string    `json:"role"`
}

// adminLoginReq and facultyLoginReq are separate on purpose: each endpoint
// accepts exactly one role and binds its own body.
type adminLoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type facultyLoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type studentLoginReq struct {
	RegisterNo  string `json:"register_no"`
	DateOfBirth string `json:"date_of_birth"`
}

// AdminLogin: POST /api/admin/login/
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req adminLoginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON data")
	}
	return h.staffLogin(c, model.RoleAdmin, req.Username, req.Password)
}

// FacultyLogin: POST /api/faculty/login/
func (h *AuthHandler) FacultyLogin(c echo.Context) error {
	var req facultyLoginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON data")
	}
	return h.staffLogin(c, model.RoleFaculty, req.Username, req.Password)
}

func (h *AuthHandler) staffLogin(c echo.Context, role model.Role, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fail(c, http.StatusBadRequest, "Username and password are required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	login, err := h.Auth.StaffLogin(ctx, role, username, password)
	if err != nil {
		return failErr(c, "staff login", err)
	}
	return ok(c, http.StatusOK, "Login successful", tokenView{Token: login.Token, Expires: login.Expires, Role: login.Role.String()})
}

// StudentLogin: POST /api/student/login/.  The response carries the
// student view plus a token for /student/me/ and the hall ticket.
func (h *AuthHandler) StudentLogin(c echo.Context) error {
	var req studentLoginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON data")
	}
	if strings.TrimSpace(req.RegisterNo) == "" || strings.TrimSpace(req.DateOfBirth) == "" {
		return fail(c, http.StatusBadRequest, "Register Number and Date of Birth are required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	login, rec, err := h.Auth.StudentLogin(ctx, req.RegisterNo, req.DateOfBirth)
	if err != nil {
		return failErr(c, "student login", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    toStudentView(rec),
		"token":   tokenView{Token: login.Token, Expires: login.Expires, Role: login.Role.String()},
	})
}

// Logout revokes the caller's session.  Used by staff and students alike.
func (h *AuthHandler) Logout(c echo.Context) error {
	p, found := middleware.PrincipalFrom(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "Authentication required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Auth.Logout(ctx, p.SessionID); err != nil {
		return failErr(c, "logout", err)
	}
	return ok(c, http.StatusOK, "Logged out", nil)
}

// Me: GET /api/student/me/
func (h *AuthHandler) Me(c echo.Context) error {
	p, found := middleware.PrincipalFrom(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "Authentication required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rec, err := h.Auth.Me(ctx, p)
	if err != nil {
		return failErr(c, "student me", err)
	}
	return ok(c, http.StatusOK, "", toStudentView(rec))
}
