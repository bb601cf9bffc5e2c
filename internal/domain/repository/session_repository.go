package repository

import (
	"context"
	"errors"

	"staan/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when no active session matches the id.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists the server-side login sessions that the
// session cookie correlates with.
type SessionRepository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, session *entity.Session) error

	// FindActive retrieves a session that has not expired yet. An
	// expired or unknown session yields ErrSessionNotFound.
	FindActive(ctx context.Context, id uuid.UUID) (*entity.Session, error)

	// Delete removes a session. Deleting an absent session is not an
	// error.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes all sessions past their expiry.
	DeleteExpired(ctx context.Context) error
}
