package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"staan/config"
	"staan/internal/delivery/http/cookie"
	"staan/internal/delivery/http/middleware"
	"staan/internal/delivery/http/response"
	domainerrors "staan/internal/domain/errors"
	"staan/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ConnectHandler holds dependencies for the platform connect handlers.
type ConnectHandler struct {
	connectUc   usecase.ConnectUsecase
	cookieCodec *cookie.Codec
	successURL  string
	logger      *slog.Logger
}

// NewConnectHandler is the constructor for ConnectHandler, injected by Fx.
func NewConnectHandler(connectUc usecase.ConnectUsecase, cookieCodec *cookie.Codec, cfg *config.Config, logger *slog.Logger) *ConnectHandler {
	successURL := "/"
	if cfg.SpotifyOAuth != nil && cfg.SpotifyOAuth.SuccessRedirectURL != "" {
		successURL = cfg.SpotifyOAuth.SuccessRedirectURL
	}

	return &ConnectHandler{
		connectUc:   connectUc,
		cookieCodec: cookieCodec,
		successURL:  successURL,
		logger:      logger,
	}
}

// SpotifyConnect redirects the browser to the Spotify consent page.
func (h *ConnectHandler) SpotifyConnect(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.connectUc.SpotifyAuthorizationURL())
}

// SpotifyConnectQR serves the consent URL as a PNG QR code so the flow
// can be started by scanning from a phone.
func (h *ConnectHandler) SpotifyConnectQR(c echo.Context) error {
	png, err := h.connectUc.SpotifyAuthorizationQR()
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// SpotifyCallback finishes the authorization-code flow. The browser's
// session cookie correlates the callback with the logged-in user; on
// success the browser is redirected to the client success page.
func (h *ConnectHandler) SpotifyCallback(c echo.Context) error {
	sessionID, err := h.cookieCodec.Read(c)
	if err != nil {
		// Pass the nil id through; the usecase reports SessionMissing
		// only after the code exchange has succeeded.
		sessionID = uuid.Nil
	}

	user, err := h.connectUc.CompleteSpotifyLink(c.Request().Context(), sessionID, c.QueryParam("code"))
	if err != nil {
		// The server-side session is already destroyed; expire the
		// cookie that pointed at it too.
		if errors.Is(err, domainerrors.ErrSessionMissing) {
			h.cookieCodec.Clear(c)
		}

		return errors.WithStack(err)
	}

	redirect := h.successURL + "?connected=" + url.QueryEscape(user.Username)

	return c.Redirect(http.StatusFound, redirect)
}

// SpotifyProfile proxies the linked Spotify profile of the
// authenticated user, lazily refreshing the stored access token.
func (h *ConnectHandler) SpotifyProfile(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return errors.WithStack(domainerrors.ErrInvalidToken)
	}

	profile, err := h.connectUc.SpotifyProfile(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, profile, "Spotify profile retrieved successfully")
}

// GoogleSignIn handles federated sign-in with a Google ID token.
func (h *ConnectHandler) GoogleSignIn(c echo.Context) error {
	var input usecase.GoogleSignInInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid Google sign-in input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.connectUc.GoogleSignIn(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	h.cookieCodec.Write(c, output.Session.ID)

	return response.Success(c, http.StatusOK, map[string]any{
		"token": output.Token,
		"user":  toUserPayload(output.User),
	}, "Google sign-in successful")
}
