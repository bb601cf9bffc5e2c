package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification failures. The guard maps these onto distinct
// response codes, everything else collapses into malformed.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims defines the custom claims carried by a bearer token.
type Claims struct {
	UserID uuid.UUID
	jwt.RegisteredClaims
}

// TokenService defines the interface for issuing and verifying bearer
// tokens. This abstracts the details of token creation from the use cases.
type TokenService interface {
	// Issue creates a signed bearer token for the given user.
	Issue(userID uuid.UUID) (string, error)

	// Verify checks a token string and returns its claims.
	Verify(tokenString string) (*Claims, error)

	// TokenTTL returns the configured token lifetime.
	TokenTTL() time.Duration
}
