package usecase

import (
	"context"

	"staan/internal/domain/entity"

	"github.com/google/uuid"
)

// UpdateProfileInput carries the optional profile fields. Nil means
// "leave unchanged"; a provided password is re-hashed before storage.
type UpdateProfileInput struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// ProfileUsecase defines profile retrieval and partial update.
type ProfileUsecase interface {
	// GetProfile loads the account of the authenticated user.
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// UpdateProfile applies the provided fields and returns the updated
	// account.
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*entity.User, error)
}
