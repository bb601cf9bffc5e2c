package repository

import (
	"context"
	"errors"

	"staan/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when no user matches the lookup key.
var ErrUserNotFound = errors.New("user not found")

// UserRepository persists user accounts together with their platform
// connection credentials.
type UserRepository interface {
	// FindByID retrieves a user by primary key.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a user by email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByUsername retrieves a user by username.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// Create inserts a new user. The implementation fills ID and
	// timestamps on the passed entity.
	Create(ctx context.Context, user *entity.User) error

	// Update persists identity fields (username, email, password hash).
	Update(ctx context.Context, user *entity.User) error

	// UpdateConnection replaces the stored platform credentials of the
	// given user in a single write.
	UpdateConnection(ctx context.Context, userID uuid.UUID, conn *entity.PlatformConnection) error
}
