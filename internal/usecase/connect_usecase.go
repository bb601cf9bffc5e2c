package usecase

import (
	"context"

	"staan/internal/domain/entity"
	"staan/internal/domain/service"

	"github.com/google/uuid"
)

// GoogleSignInInput carries the Google-issued ID token.
type GoogleSignInInput struct {
	IDToken string `json:"id_token" validate:"required"`
}

// ConnectUsecase drives platform account linking and federated sign-in.
type ConnectUsecase interface {
	// SpotifyAuthorizationURL returns the consent URL the browser is
	// sent to.
	SpotifyAuthorizationURL() string

	// SpotifyAuthorizationQR renders the consent URL as a PNG QR code.
	SpotifyAuthorizationQR() ([]byte, error)

	// CompleteSpotifyLink finishes the authorization-code flow: it
	// exchanges the code, correlates the browser's session with a user
	// and stores the tokens on that account.
	CompleteSpotifyLink(ctx context.Context, sessionID uuid.UUID, code string) (*entity.User, error)

	// GoogleSignIn verifies a Google ID token and logs the asserted
	// identity in, provisioning an account on first contact.
	GoogleSignIn(ctx context.Context, input *GoogleSignInInput) (*LoginOutput, error)

	// SpotifyProfile fetches the linked Spotify profile, refreshing the
	// stored access token at most once when needed.
	SpotifyProfile(ctx context.Context, userID uuid.UUID) (*service.SpotifyProfile, error)
}
