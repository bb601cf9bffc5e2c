package entity

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the streaming platform an account is linked to.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformGoogle  Platform = "google"
)

// PlatformConnection carries the OAuth credentials of a linked platform
// account. Tokens are stored verbatim as issued by the provider.
type PlatformConnection struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Platform     Platform
	Connected    bool
}

// Expired reports whether the stored access token has passed its expiry.
func (c *PlatformConnection) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// User represents a registered account. PasswordHash is empty for
// accounts provisioned through federated sign-in.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Connection   *PlatformConnection
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can authenticate with
// credentials at all.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
