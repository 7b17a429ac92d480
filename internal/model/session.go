package model

import "time"

// Session is the server-side half of a login.  ID equals the jti claim of
// the token handed to the client; Subject is a staff id or a register_no.
type Session struct {
	ID        string
	Role      Role
	Subject   string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the session may still authorize requests.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
