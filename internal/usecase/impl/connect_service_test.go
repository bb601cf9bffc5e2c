package impl

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"staan/internal/domain/entity"
	domainerrors "staan/internal/domain/errors"
	"staan/internal/domain/service"
	"staan/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connectServiceFixture struct {
	tx       *fakeTxManager
	oauth    *fakeOAuthService
	api      *fakeSpotifyAPI
	verifier *fakeIdentityVerifier
	qr       *fakeQRCodeService
	svc      usecase.ConnectUsecase
}

func newConnectServiceFixture() *connectServiceFixture {
	tx := newFakeTxManager()
	oauth := &fakeOAuthService{
		authURL: "https://accounts.spotify.com/authorize?client_id=test",
		exchange: func(string) (*service.TokenPair, error) {
			return nil, errors.New("exchange not stubbed")
		},
		refresh: func(string) (*service.TokenPair, error) {
			return nil, errors.New("refresh not stubbed")
		},
	}
	api := &fakeSpotifyAPI{profile: func(string) (*service.SpotifyProfile, error) {
		return nil, errors.New("profile not stubbed")
	}}
	verifier := &fakeIdentityVerifier{verify: func(string) (*service.FederatedIdentity, error) {
		return nil, errors.New("verify not stubbed")
	}}
	qr := &fakeQRCodeService{encode: func(string) ([]byte, error) {
		return []byte("png-bytes"), nil
	}}

	return &connectServiceFixture{
		tx:       tx,
		oauth:    oauth,
		api:      api,
		verifier: verifier,
		qr:       qr,
		svc: NewConnectService(ConnectServiceParams{
			TxManager:    tx,
			UserRepo:     tx.users,
			SessionRepo:  tx.sessions,
			SpotifyOAuth: oauth,
			SpotifyAPI:   api,
			GoogleAuth:   verifier,
			TokenService: &fakeTokenService{},
			QRCodeSvc:    qr,
			Logger:       slog.Default(),
		}),
	}
}

func (f *connectServiceFixture) addLinkedUser(conn *entity.PlatformConnection) *entity.User {
	return f.tx.users.add(&entity.User{
		Username:   "listener",
		Email:      "listener@example.com",
		Connection: conn,
	})
}

func TestSpotifyAuthorizationURL(t *testing.T) {
	f := newConnectServiceFixture()

	assert.Equal(t, f.oauth.authURL, f.svc.SpotifyAuthorizationURL())
}

func TestSpotifyAuthorizationQR(t *testing.T) {
	f := newConnectServiceFixture()

	var encoded string
	f.qr.encode = func(data string) ([]byte, error) {
		encoded = data

		return []byte("png-bytes"), nil
	}

	png, err := f.svc.SpotifyAuthorizationQR()
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), png)
	assert.Equal(t, f.oauth.authURL, encoded)
}

func TestCompleteSpotifyLink(t *testing.T) {
	f := newConnectServiceFixture()
	user := f.tx.users.add(&entity.User{Username: "listener", Email: "listener@example.com"})
	session := f.tx.sessions.add(&entity.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	})

	expiresAt := time.Now().Add(time.Hour)
	f.oauth.exchange = func(code string) (*service.TokenPair, error) {
		assert.Equal(t, "auth-code", code)

		return &service.TokenPair{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			ExpiresAt:    expiresAt,
		}, nil
	}

	linked, err := f.svc.CompleteSpotifyLink(context.Background(), session.ID, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, user.ID, linked.ID)

	require.NotNil(t, linked.Connection)
	assert.Equal(t, entity.PlatformSpotify, linked.Connection.Platform)
	assert.True(t, linked.Connection.Connected)
	assert.Equal(t, "access-token", linked.Connection.AccessToken)
	assert.Equal(t, "refresh-token", linked.Connection.RefreshToken)
	assert.True(t, expiresAt.Equal(linked.Connection.ExpiresAt))

	require.Len(t, f.tx.users.connWrites, 1)
}

func TestCompleteSpotifyLink_MissingCode(t *testing.T) {
	f := newConnectServiceFixture()

	exchangeCalled := false
	f.oauth.exchange = func(string) (*service.TokenPair, error) {
		exchangeCalled = true

		return nil, nil
	}

	linked, err := f.svc.CompleteSpotifyLink(context.Background(), uuid.New(), "")
	assert.Nil(t, linked)
	assert.ErrorIs(t, err, domainerrors.ErrMissingAuthCode)
	assert.False(t, exchangeCalled)
}

func TestCompleteSpotifyLink_ExchangeFailure(t *testing.T) {
	f := newConnectServiceFixture()
	user := f.tx.users.add(&entity.User{Username: "listener", Email: "listener@example.com"})
	session := f.tx.sessions.add(&entity.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	})

	f.oauth.exchange = func(string) (*service.TokenPair, error) {
		return nil, errors.New("invalid_grant")
	}

	linked, err := f.svc.CompleteSpotifyLink(context.Background(), session.ID, "bad-code")
	assert.Nil(t, linked)
	assert.ErrorIs(t, err, domainerrors.ErrOAuthExchangeFailed)

	// Nothing was written to the account.
	assert.Empty(t, f.tx.users.connWrites)
	stored, findErr := f.tx.users.FindByID(context.Background(), user.ID)
	require.NoError(t, findErr)
	assert.Nil(t, stored.Connection)
}

func TestCompleteSpotifyLink_SessionMissing(t *testing.T) {
	f := newConnectServiceFixture()

	f.oauth.exchange = func(string) (*service.TokenPair, error) {
		return &service.TokenPair{AccessToken: "access-token"}, nil
	}

	// The cookie pointed at an expired session row.
	stale := f.tx.sessions.add(&entity.Session{
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	linked, err := f.svc.CompleteSpotifyLink(context.Background(), stale.ID, "auth-code")
	assert.Nil(t, linked)
	assert.ErrorIs(t, err, domainerrors.ErrSessionMissing)

	// The stale row is destroyed so the cookie cannot be replayed.
	assert.Contains(t, f.tx.sessions.deleted, stale.ID)
}

func TestGoogleSignIn_ProvisionsNewAccount(t *testing.T) {
	f := newConnectServiceFixture()

	f.verifier.verify = func(idToken string) (*service.FederatedIdentity, error) {
		assert.Equal(t, "google-id-token", idToken)

		return &service.FederatedIdentity{
			Subject:       "google-subject",
			Email:         "fresh@example.com",
			Name:          "Fresh Listener",
			EmailVerified: true,
		}, nil
	}

	output, err := f.svc.GoogleSignIn(context.Background(), &usecase.GoogleSignInInput{IDToken: "google-id-token"})
	require.NoError(t, err)

	user := output.User
	assert.Equal(t, "Fresh Listener", user.Username)
	assert.Equal(t, "fresh@example.com", user.Email)
	assert.False(t, user.HasPassword())

	require.NotNil(t, user.Connection)
	assert.Equal(t, entity.PlatformGoogle, user.Connection.Platform)
	assert.True(t, user.Connection.Connected)

	assert.Equal(t, "token-for-"+user.ID.String(), output.Token)
	require.NotNil(t, output.Session)
	assert.Equal(t, user.ID, output.Session.UserID)
}

func TestGoogleSignIn_ReusesExistingAccount(t *testing.T) {
	f := newConnectServiceFixture()
	existing := f.tx.users.add(&entity.User{
		Username:     "listener",
		Email:        "listener@example.com",
		PasswordHash: "hashed:hunter2hunter2",
	})

	f.verifier.verify = func(string) (*service.FederatedIdentity, error) {
		return &service.FederatedIdentity{
			Subject:       "google-subject",
			Email:         "listener@example.com",
			Name:          "Someone Entirely Different",
			EmailVerified: true,
		}, nil
	}

	output, err := f.svc.GoogleSignIn(context.Background(), &usecase.GoogleSignInInput{IDToken: "google-id-token"})
	require.NoError(t, err)

	// Matched by email; the stored account is untouched.
	assert.Equal(t, existing.ID, output.User.ID)
	assert.Equal(t, "listener", output.User.Username)
	assert.Equal(t, "hashed:hunter2hunter2", output.User.PasswordHash)
	assert.Len(t, f.tx.users.users, 1)
}

func TestGoogleSignIn_RejectedToken(t *testing.T) {
	f := newConnectServiceFixture()

	f.verifier.verify = func(string) (*service.FederatedIdentity, error) {
		return nil, errors.New("signature mismatch")
	}

	output, err := f.svc.GoogleSignIn(context.Background(), &usecase.GoogleSignInInput{IDToken: "forged"})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
	assert.Empty(t, f.tx.users.users)
}

func TestSpotifyProfile(t *testing.T) {
	f := newConnectServiceFixture()
	user := f.addLinkedUser(&entity.PlatformConnection{
		AccessToken:  "valid-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
		Platform:     entity.PlatformSpotify,
		Connected:    true,
	})

	refreshCalls := 0
	f.oauth.refresh = func(string) (*service.TokenPair, error) {
		refreshCalls++

		return nil, errors.New("must not refresh a valid token")
	}
	f.api.profile = func(accessToken string) (*service.SpotifyProfile, error) {
		assert.Equal(t, "valid-token", accessToken)

		return &service.SpotifyProfile{ID: "spotify-user-1", DisplayName: "Test Listener"}, nil
	}

	profile, err := f.svc.SpotifyProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "spotify-user-1", profile.ID)
	assert.Zero(t, refreshCalls)
}

func TestSpotifyProfile_NotConnected(t *testing.T) {
	tests := []struct {
		name string
		conn *entity.PlatformConnection
	}{
		{"no connection", nil},
		{"disconnected", &entity.PlatformConnection{Platform: entity.PlatformSpotify, Connected: false}},
		{"other platform", &entity.PlatformConnection{Platform: entity.PlatformGoogle, Connected: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newConnectServiceFixture()
			user := f.addLinkedUser(tt.conn)

			profile, err := f.svc.SpotifyProfile(context.Background(), user.ID)
			assert.Nil(t, profile)
			assert.ErrorIs(t, err, domainerrors.ErrPlatformNotConnected)
		})
	}
}

func TestSpotifyProfile_ProactiveRefresh(t *testing.T) {
	f := newConnectServiceFixture()
	user := f.addLinkedUser(&entity.PlatformConnection{
		AccessToken:  "expired-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(-time.Minute),
		Platform:     entity.PlatformSpotify,
		Connected:    true,
	})

	refreshCalls := 0
	newExpiry := time.Now().Add(time.Hour)
	f.oauth.refresh = func(refreshToken string) (*service.TokenPair, error) {
		refreshCalls++
		assert.Equal(t, "refresh-token", refreshToken)

		return &service.TokenPair{
			AccessToken:  "fresh-token",
			RefreshToken: "rotated-refresh-token",
			ExpiresAt:    newExpiry,
		}, nil
	}
	f.api.profile = func(accessToken string) (*service.SpotifyProfile, error) {
		assert.Equal(t, "fresh-token", accessToken)

		return &service.SpotifyProfile{ID: "spotify-user-1"}, nil
	}

	profile, err := f.svc.SpotifyProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "spotify-user-1", profile.ID)
	assert.Equal(t, 1, refreshCalls)

	// The rotated credentials were persisted.
	require.Len(t, f.tx.users.connWrites, 1)
	written := f.tx.users.connWrites[0]
	assert.Equal(t, "fresh-token", written.AccessToken)
	assert.Equal(t, "rotated-refresh-token", written.RefreshToken)
	assert.True(t, newExpiry.Equal(written.ExpiresAt))
}

func TestSpotifyProfile_ReactiveRefreshRetriesOnce(t *testing.T) {
	f := newConnectServiceFixture()
	user := f.addLinkedUser(&entity.PlatformConnection{
		AccessToken:  "revoked-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour), // expiry looks fine
		Platform:     entity.PlatformSpotify,
		Connected:    true,
	})

	refreshCalls := 0
	f.oauth.refresh = func(string) (*service.TokenPair, error) {
		refreshCalls++

		return &service.TokenPair{
			AccessToken:  "fresh-token",
			RefreshToken: "refresh-token",
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil
	}

	profileCalls := 0
	f.api.profile = func(accessToken string) (*service.SpotifyProfile, error) {
		profileCalls++
		if accessToken == "revoked-token" {
			return nil, service.ErrUpstreamUnauthorized
		}

		return &service.SpotifyProfile{ID: "spotify-user-1"}, nil
	}

	profile, err := f.svc.SpotifyProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "spotify-user-1", profile.ID)
	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, 2, profileCalls)
}

func TestSpotifyProfile_RejectionAfterRefreshIsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Time
	}{
		{"proactive refresh", time.Now().Add(-time.Minute)},
		{"reactive refresh", time.Now().Add(time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newConnectServiceFixture()
			user := f.addLinkedUser(&entity.PlatformConnection{
				AccessToken:  "stale-token",
				RefreshToken: "refresh-token",
				ExpiresAt:    tt.expiry,
				Platform:     entity.PlatformSpotify,
				Connected:    true,
			})

			refreshCalls := 0
			f.oauth.refresh = func(string) (*service.TokenPair, error) {
				refreshCalls++

				return &service.TokenPair{
					AccessToken:  "fresh-token",
					RefreshToken: "refresh-token",
					ExpiresAt:    time.Now().Add(time.Hour),
				}, nil
			}
			// The platform rejects every token, fresh or not.
			f.api.profile = func(string) (*service.SpotifyProfile, error) {
				return nil, service.ErrUpstreamUnauthorized
			}

			profile, err := f.svc.SpotifyProfile(context.Background(), user.ID)
			assert.Nil(t, profile)
			assert.ErrorIs(t, err, domainerrors.ErrOAuthExchangeFailed)

			// Never more than one refresh per call.
			assert.Equal(t, 1, refreshCalls)
		})
	}
}

func TestSpotifyProfile_RefreshFailure(t *testing.T) {
	f := newConnectServiceFixture()
	user := f.addLinkedUser(&entity.PlatformConnection{
		AccessToken:  "expired-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(-time.Minute),
		Platform:     entity.PlatformSpotify,
		Connected:    true,
	})

	f.oauth.refresh = func(string) (*service.TokenPair, error) {
		return nil, errors.New("invalid_grant")
	}

	profile, err := f.svc.SpotifyProfile(context.Background(), user.ID)
	assert.Nil(t, profile)
	assert.ErrorIs(t, err, domainerrors.ErrOAuthExchangeFailed)
	assert.Empty(t, f.tx.users.connWrites)
}

func TestSpotifyProfile_UnknownUser(t *testing.T) {
	f := newConnectServiceFixture()

	profile, err := f.svc.SpotifyProfile(context.Background(), uuid.New())
	assert.Nil(t, profile)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}
