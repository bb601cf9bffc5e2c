package service

import (
	"context"
	"errors"
)

// ErrUpstreamUnauthorized is returned when the platform rejects the
// access token. It signals the caller to refresh and retry once.
var ErrUpstreamUnauthorized = errors.New("upstream rejected access token")

// SpotifyProfile is the subset of the Spotify /me payload the app
// exposes.
type SpotifyProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
	Followers   int    `json:"followers"`
}

// SpotifyAPI calls the Spotify Web API on behalf of a linked user.
type SpotifyAPI interface {
	// Profile fetches the current user's profile with the given access
	// token. A 401/403 from the platform maps to ErrUpstreamUnauthorized.
	Profile(ctx context.Context, accessToken string) (*SpotifyProfile, error)
}
