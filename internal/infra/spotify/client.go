package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"staan/internal/domain/service"

	"github.com/pkg/errors"
)

const spotifyAPIBaseURL = "https://api.spotify.com/v1"

type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient builds a Spotify Web API client.
func NewAPIClient() service.SpotifyAPI {
	return &apiClient{
		baseURL:    spotifyAPIBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type profileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
	Followers   struct {
		Total int `json:"total"`
	} `json:"followers"`
}

// Profile fetches the current user's profile with the given access token.
func (c *apiClient) Profile(ctx context.Context, accessToken string) (*service.SpotifyProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build profile request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call profile endpoint")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, service.ErrUpstreamUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("profile endpoint returned status %d", resp.StatusCode)
	}

	var payload profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode profile response")
	}

	return &service.SpotifyProfile{
		ID:          payload.ID,
		DisplayName: payload.DisplayName,
		Email:       payload.Email,
		Country:     payload.Country,
		Product:     payload.Product,
		Followers:   payload.Followers.Total,
	}, nil
}
