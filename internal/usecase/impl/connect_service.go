package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "staan/internal/delivery/context"
	"staan/internal/domain/entity"
	domainerrors "staan/internal/domain/errors"
	"staan/internal/domain/repository"
	"staan/internal/domain/service"
	"staan/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// connectService implements the ConnectUsecase interface.
type connectService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	spotifyOAuth service.OAuthService
	spotifyAPI   service.SpotifyAPI
	googleAuth   service.IdentityVerifier
	tokenService service.TokenService
	qrcodeSvc    service.QRCodeService
	logger       *slog.Logger
}

// ConnectServiceParams holds dependencies for connectService, injected by Fx.
type ConnectServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	SessionRepo  repository.SessionRepository
	SpotifyOAuth service.OAuthService
	SpotifyAPI   service.SpotifyAPI
	GoogleAuth   service.IdentityVerifier
	TokenService service.TokenService
	QRCodeSvc    service.QRCodeService
	Logger       *slog.Logger
}

// NewConnectService is the constructor for connectService.
func NewConnectService(params ConnectServiceParams) usecase.ConnectUsecase {
	return &connectService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		sessionRepo:  params.SessionRepo,
		spotifyOAuth: params.SpotifyOAuth,
		spotifyAPI:   params.SpotifyAPI,
		googleAuth:   params.GoogleAuth,
		tokenService: params.TokenService,
		qrcodeSvc:    params.QRCodeSvc,
		logger:       params.Logger,
	}
}

func (srv *connectService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SpotifyAuthorizationURL returns the consent URL the browser is sent to.
func (srv *connectService) SpotifyAuthorizationURL() string {
	return srv.spotifyOAuth.AuthorizationURL()
}

// SpotifyAuthorizationQR renders the consent URL as a PNG QR code so
// the flow can be started from a phone.
func (srv *connectService) SpotifyAuthorizationQR() ([]byte, error) {
	png, err := srv.qrcodeSvc.EncodePNG(srv.spotifyOAuth.AuthorizationURL())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode authorization URL as QR code")
	}

	return png, nil
}

// CompleteSpotifyLink finishes the authorization-code flow. The code is
// exchanged before the session is consulted, so an invalid code never
// reveals whether a session exists.
func (srv *connectService) CompleteSpotifyLink(ctx context.Context, sessionID uuid.UUID, code string) (*entity.User, error) {
	if code == "" {
		return nil, domainerrors.ErrMissingAuthCode.WrapMessage("callback carried no authorization code")
	}

	pair, err := srv.spotifyOAuth.Exchange(ctx, code)
	if err != nil {
		srv.log(ctx).Warn("Spotify code exchange failed", slog.Any("error", err))

		return nil, domainerrors.ErrOAuthExchangeFailed.WrapMessage("authorization code exchange failed")
	}

	session, err := srv.sessionRepo.FindActive(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// Destroy whatever the cookie pointed at so a stale cookie
			// cannot be replayed against a future session row.
			if delErr := srv.sessionRepo.Delete(ctx, sessionID); delErr != nil {
				srv.log(ctx).Warn("Failed to destroy stale session", slog.Any("error", delErr))
			}

			return nil, domainerrors.ErrSessionMissing.WrapMessage("callback could not be correlated with a login session")
		}

		return nil, errors.Wrap(err, "failed to look up login session")
	}

	var linked *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		user, err := userRepo.FindByID(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound.WrapMessage("session points at a deleted account")
			}

			return errors.Wrap(err, "failed to load session user")
		}

		conn := &entity.PlatformConnection{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
			Platform:     srv.spotifyOAuth.Provider(),
			Connected:    true,
		}
		if err := userRepo.UpdateConnection(ctx, user.ID, conn); err != nil {
			return errors.Wrap(err, "failed to store platform credentials")
		}

		user.Connection = conn
		linked = user

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Spotify link failed", slog.Any("sessionID", sessionID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute spotify link transaction")
	}

	srv.log(ctx).Info("Spotify account linked", slog.Any("userID", linked.ID))

	return linked, nil
}

// GoogleSignIn verifies a Google ID token and logs the asserted
// identity in, auto-provisioning an account keyed by email on first
// contact. Provisioned accounts carry no password hash.
func (srv *connectService) GoogleSignIn(ctx context.Context, input *usecase.GoogleSignInInput) (*usecase.LoginOutput, error) {
	identity, err := srv.googleAuth.VerifyIDToken(ctx, input.IDToken)
	if err != nil {
		srv.log(ctx).Warn("Google ID token rejected", slog.Any("error", err))

		return nil, domainerrors.ErrInvalidToken.WrapMessage("Google ID token verification failed")
	}

	var user *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		var findErr error
		user, findErr = userRepo.FindByEmail(ctx, identity.Email)
		if findErr == nil {
			return nil
		}
		if !errors.Is(findErr, repository.ErrUserNotFound) {
			return errors.Wrap(findErr, "failed to find user by email")
		}

		srv.log(ctx).Info("Provisioning account for Google identity", slog.String("email", identity.Email))

		user = &entity.User{
			Username: identity.Name,
			Email:    identity.Email,
			Connection: &entity.PlatformConnection{
				Platform:  srv.googleAuth.Provider(),
				Connected: true,
			},
		}

		return errors.Wrap(userRepo.Create(ctx, user), "failed to provision Google user")
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Google sign-in transaction")
	}

	token, err := srv.tokenService.Issue(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue bearer token")
	}

	session := &entity.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(entity.SessionTTL),
	}
	if err := srv.sessionRepo.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to create login session")
	}

	srv.log(ctx).Debug("Google sign-in completed", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{
		Token:   token,
		Session: session,
		User:    user,
	}, nil
}

// SpotifyProfile fetches the linked profile, refreshing the stored
// access token at most ONCE per call: proactively when the stored
// expiry has passed, or reactively when the platform rejects the token.
// A rejection after a refresh is terminal.
func (srv *connectService) SpotifyProfile(ctx context.Context, userID uuid.UUID) (*service.SpotifyProfile, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("account no longer exists")
		}

		return nil, errors.Wrap(err, "failed to load user")
	}

	conn := user.Connection
	if conn == nil || !conn.Connected || conn.Platform != entity.PlatformSpotify {
		return nil, domainerrors.ErrPlatformNotConnected.WrapMessage("spotify is not linked to this account")
	}

	refreshed := false
	if conn.Expired(time.Now()) {
		if err := srv.refreshConnection(ctx, userID, conn); err != nil {
			return nil, err
		}
		refreshed = true
	}

	profile, err := srv.spotifyAPI.Profile(ctx, conn.AccessToken)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, service.ErrUpstreamUnauthorized) {
		return nil, errors.Wrap(err, "failed to fetch spotify profile")
	}
	if refreshed {
		// The token was just refreshed and still rejected. Refreshing
		// again cannot help.
		srv.log(ctx).Warn("Spotify rejected freshly refreshed token", slog.Any("userID", userID))

		return nil, domainerrors.ErrOAuthExchangeFailed.WrapMessage("platform rejected a freshly refreshed token")
	}

	// Reactive path: the stored expiry looked fine but the platform
	// disagreed. Refresh once and retry once.
	if err := srv.refreshConnection(ctx, userID, conn); err != nil {
		return nil, err
	}

	profile, err = srv.spotifyAPI.Profile(ctx, conn.AccessToken)
	if err != nil {
		if errors.Is(err, service.ErrUpstreamUnauthorized) {
			srv.log(ctx).Warn("Spotify rejected token after retry", slog.Any("userID", userID))

			return nil, domainerrors.ErrOAuthExchangeFailed.WrapMessage("platform rejected the retried request")
		}

		return nil, errors.Wrap(err, "failed to fetch spotify profile after refresh")
	}

	return profile, nil
}

// refreshConnection refreshes the access token and persists the new
// credentials, mutating conn in place so the caller retries with them.
func (srv *connectService) refreshConnection(ctx context.Context, userID uuid.UUID, conn *entity.PlatformConnection) error {
	srv.log(ctx).Debug("Refreshing spotify access token", slog.Any("userID", userID))

	pair, err := srv.spotifyOAuth.Refresh(ctx, conn.RefreshToken)
	if err != nil {
		srv.log(ctx).Warn("Spotify token refresh failed", slog.Any("userID", userID), slog.Any("error", err))

		return domainerrors.ErrOAuthExchangeFailed.WrapMessage("token refresh failed")
	}

	conn.AccessToken = pair.AccessToken
	conn.RefreshToken = pair.RefreshToken
	conn.ExpiresAt = pair.ExpiresAt

	if err := srv.userRepo.UpdateConnection(ctx, userID, conn); err != nil {
		return errors.Wrap(err, "failed to persist refreshed credentials")
	}

	return nil
}
