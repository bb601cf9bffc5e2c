// Package usecase defines the application's business operations as interfaces with their DTOs.
package usecase

import (
	"context"

	"staan/internal/domain/entity"
)

// RegisterInput is the DTO for the registration operation.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RegisterOutput is the DTO returned after a successful registration.
type RegisterOutput struct {
	User *entity.User
}

// LoginInput is the DTO for the login operation. Identifier may be an
// email address or a username.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginOutput is the DTO returned after a successful login. Session is
// the server-side record the delivery layer turns into a cookie.
type LoginOutput struct {
	Token   string
	Session *entity.Session
	User    *entity.User
}

// UserUsecase defines account registration and login.
type UserUsecase interface {
	// Register creates a new account with a unique username and email.
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)

	// Login authenticates by email or username, issues a bearer token
	// and opens a server-side session.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
}
