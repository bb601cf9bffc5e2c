// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"staan/internal/delivery/http/cookie"
	"staan/internal/delivery/http/middleware"
	"staan/internal/delivery/http/response"
	"staan/internal/domain/entity"
	domainerrors "staan/internal/domain/errors"
	"staan/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// userPayload is the JSON shape of an account in responses. Credentials
// and platform tokens never appear here.
type userPayload struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Platform  string    `json:"platform_connected,omitempty"`
	Connected bool      `json:"is_connected"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserPayload(user *entity.User) userPayload {
	payload := userPayload{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	if conn := user.Connection; conn != nil {
		payload.Platform = string(conn.Platform)
		payload.Connected = conn.Connected
	}

	return payload
}

// UserHandler holds dependencies for account-related handlers.
type UserHandler struct {
	userUc      usecase.UserUsecase
	profileUc   usecase.ProfileUsecase
	cookieCodec *cookie.Codec
	logger      *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(userUc usecase.UserUsecase, profileUc usecase.ProfileUsecase, cookieCodec *cookie.Codec, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUc:      userUc,
		profileUc:   profileUc,
		cookieCodec: cookieCodec,
		logger:      logger,
	}
}

// Register handles the account registration request.
func (h *UserHandler) Register(c echo.Context) error {
	var input usecase.RegisterInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.userUc.Register(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toUserPayload(output.User), "User registered successfully")
}

// Login handles the login request. On success it returns the bearer
// token and sets the session cookie that later correlates the OAuth
// callback.
func (h *UserHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.userUc.Login(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	h.cookieCodec.Write(c, output.Session.ID)

	return response.Success(c, http.StatusOK, map[string]any{
		"token": output.Token,
		"user":  toUserPayload(output.User),
	}, "Login successful")
}

// GetProfile handles the request to get the current user's profile.
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return errors.WithStack(domainerrors.ErrInvalidToken)
	}

	user, err := h.profileUc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserPayload(user), "Profile retrieved successfully")
}

// UpdateProfile handles the partial profile update request. Only the
// fields present in the body change.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return errors.WithStack(domainerrors.ErrInvalidToken)
	}

	var input usecase.UpdateProfileInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.profileUc.UpdateProfile(c.Request().Context(), userID, &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserPayload(user), "Profile updated successfully")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
