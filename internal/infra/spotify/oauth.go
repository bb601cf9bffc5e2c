// Package spotify implements the Spotify authorization-code flow and
// Web API client.
package spotify

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"staan/config"
	"staan/internal/domain/entity"
	"staan/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

type oauthService struct {
	config *oauth2.Config
	logger *slog.Logger
}

// NewOAuthService builds the Spotify authorization-code bridge from
// configuration.
func NewOAuthService(cfg *config.Config, logger *slog.Logger) service.OAuthService {
	return &oauthService{
		config: &oauth2.Config{
			ClientID:     cfg.SpotifyOAuth.ClientID,
			ClientSecret: cfg.SpotifyOAuth.ClientSecret,
			RedirectURL:  cfg.SpotifyOAuth.RedirectURI,
			Scopes:       cfg.SpotifyOAuth.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		logger: logger,
	}
}

// AuthorizationURL builds the consent URL the browser is redirected to.
// The flow carries no state parameter; the callback is correlated with
// the login session cookie instead.
func (s *oauthService) AuthorizationURL() string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", s.config.ClientID)
	params.Set("scope", strings.Join(s.config.Scopes, " "))
	params.Set("redirect_uri", s.config.RedirectURL)

	return spotifyAuthURL + "?" + params.Encode()
}

// Exchange trades an authorization code for tokens. The returned expiry
// is absolute, computed from the provider's expires_in at exchange time.
func (s *oauthService) Exchange(ctx context.Context, code string) (*service.TokenPair, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("Spotify code exchange failed", "error", err)

		return nil, errors.Wrap(err, "exchange authorization code")
	}

	return &service.TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// Refresh trades a refresh token for a fresh access token. Spotify may
// withhold a new refresh token, in which case the old one stays valid.
func (s *oauthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	source := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		s.logger.Error("Spotify token refresh failed", "error", err)

		return nil, errors.Wrap(err, "refresh access token")
	}

	pair := &service.TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}

	return pair, nil
}

// Provider names the platform this service talks to.
func (s *oauthService) Provider() entity.Platform {
	return entity.PlatformSpotify
}
