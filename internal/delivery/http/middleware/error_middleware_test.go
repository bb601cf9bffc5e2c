package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "staan/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func runErrorHandler(err error) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewErrorMiddleware(slog.Default()).HandleHTTPError(err, c)

	return rec
}

func TestHandleHTTPError_AppError(t *testing.T) {
	rec := runErrorHandler(domainerrors.ErrUserAlreadyExists)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"USER_ALREADY_EXISTS"`)
}

func TestHandleHTTPError_WrappedAppError(t *testing.T) {
	err := errors.Wrap(domainerrors.ErrSessionMissing.WrapMessage("callback"), "handler")
	rec := runErrorHandler(err)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"SESSION_MISSING"`)
}

func TestHandleHTTPError_EchoHTTPError(t *testing.T) {
	rec := runErrorHandler(echo.NewHTTPError(http.StatusNotFound, "route not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"HTTP_ERROR"`)
	assert.Contains(t, rec.Body.String(), "route not found")
}

func TestHandleHTTPError_UnknownErrorHidesDetail(t *testing.T) {
	rec := runErrorHandler(errors.New("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"INTERNAL_ERROR"`)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
