package models

import (
	"strings"
	"time"
)

// User is the visitor identity exposed to the browser.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the server-side record referenced by the session cookie.
type Session struct {
	ID string `json:"id"`
	User
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session is past its expiry. A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Normalize trims surrounding whitespace from the identity fields.
func (u User) Normalize() User {
	return User{Name: strings.TrimSpace(u.Name), Email: strings.TrimSpace(u.Email)}
}

// Valid reports whether both name and email are present.
func (u User) Valid() bool {
	n := u.Normalize()
	return n.Name != "" && n.Email != ""
}
