package service

import (
	"context"
	"time"

	"staan/internal/domain/entity"
)

// TokenPair is the credential set returned by an authorization-code
// exchange or a refresh. ExpiresAt is absolute, derived from the
// provider's expires_in at the moment of exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// OAuthService drives an authorization-code flow against a streaming
// platform.
type OAuthService interface {
	// AuthorizationURL builds the provider consent URL the browser is
	// redirected to.
	AuthorizationURL() string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (*TokenPair, error)

	// Refresh trades a refresh token for a fresh access token. When the
	// provider withholds a new refresh token the old one is kept.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	// Provider names the platform this service talks to.
	Provider() entity.Platform
}

// FederatedIdentity is the verified identity extracted from a
// provider-issued ID token.
type FederatedIdentity struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// IdentityVerifier validates provider ID tokens for federated sign-in.
type IdentityVerifier interface {
	// VerifyIDToken validates the token's claims and returns the
	// identity it asserts.
	VerifyIDToken(ctx context.Context, idToken string) (*FederatedIdentity, error)

	// Provider names the identity provider.
	Provider() entity.Platform
}
