package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionTTL is the absolute lifetime of a login session. It matches
// the session cookie max-age so both expire together.
const SessionTTL = time.Hour

// Session is the server-side record correlated with the session cookie.
// It bridges the OAuth callback, which carries no bearer token, back to
// the logged-in user.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session has passed its absolute expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
