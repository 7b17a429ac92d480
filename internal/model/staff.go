package model

import "time"

// StaffAccount mirrors staff_accounts: admins and faculty who sign in with a
// username and password.  PasswordHash is bcrypt.
type StaffAccount struct {
	ID           uint64
	Username     string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
