package middleware

import (
	"strings"

	domainerrors "staan/internal/domain/errors"
	"staan/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ContextKeyUserID is the echo context key carrying the verified user id.
const ContextKeyUserID = "userID"

// AuthMiddleware guards routes behind bearer-token authentication.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate validates the Authorization header. Only the exact
// "Bearer <token>" form is accepted; failures surface as the domain
// error sentinels, which the central error handler turns into uniform
// 401 responses — absent and malformed headers are indistinguishable,
// only the expired/invalid split is exposed.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return errors.WithStack(domainerrors.ErrUnauthorized)
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return errors.WithStack(domainerrors.ErrUnauthorized)
		}

		claims, err := m.tokenSvc.Verify(tokenString)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				return errors.WithStack(domainerrors.ErrTokenExpired)
			}

			return errors.WithStack(domainerrors.ErrInvalidToken)
		}

		// Set user info on the context for handlers to use
		c.Set(ContextKeyUserID, claims.UserID)

		return next(c)
	}
}
