package models

import "time"

type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Valid reports whether the session may still authenticate at now.
func (s *Session) Valid(now time.Time) bool {
	return s.ExpiresAt.After(now)
}
