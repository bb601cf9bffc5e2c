package cookie

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"staan/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *Codec {
	cfg := &config.Config{}
	cfg.SecretKey.Session = "test_session_secret_key_very_long_for_testing"

	return NewCodec(cfg)
}

func newContext(cookieValue string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookieValue != "" {
		req.AddCookie(&http.Cookie{Name: Name, Value: cookieValue})
	}
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func TestCodec_WriteReadRoundTrip(t *testing.T) {
	codec := newTestCodec()
	sessionID := uuid.New()

	writeCtx, rec := newContext("")
	codec.Write(writeCtx, sessionID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	written := cookies[0]
	assert.Equal(t, Name, written.Name)
	assert.Equal(t, maxAge, written.MaxAge)
	assert.True(t, written.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, written.SameSite)

	readCtx, _ := newContext(written.Value)
	got, err := codec.Read(readCtx)
	require.NoError(t, err)
	assert.Equal(t, sessionID, got)
}

func TestCodec_ReadMissingCookie(t *testing.T) {
	codec := newTestCodec()

	ctx, _ := newContext("")
	id, err := codec.Read(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, uuid.Nil, id)
}

func TestCodec_ReadRejectsTampering(t *testing.T) {
	codec := newTestCodec()
	sessionID := uuid.New()
	otherID := uuid.New()

	writeCtx, rec := newContext("")
	codec.Write(writeCtx, sessionID)
	value := rec.Result().Cookies()[0].Value

	_, sig, found := strings.Cut(value, ".")
	require.True(t, found)

	tests := []struct {
		name  string
		value string
	}{
		{"swapped session id", otherID.String() + "." + sig},
		{"garbled signature", sessionID.String() + "." + strings.Repeat("0", len(sig))},
		{"missing signature", sessionID.String()},
		{"not a uuid", "not-a-uuid." + sig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newContext(tt.value)
			id, err := codec.Read(ctx)
			assert.ErrorIs(t, err, ErrNoSession)
			assert.Equal(t, uuid.Nil, id)
		})
	}
}

func TestCodec_ReadRejectsOtherSecret(t *testing.T) {
	codec := newTestCodec()

	otherCfg := &config.Config{}
	otherCfg.SecretKey.Session = "a_completely_different_session_secret"
	other := NewCodec(otherCfg)

	writeCtx, rec := newContext("")
	other.Write(writeCtx, uuid.New())

	ctx, _ := newContext(rec.Result().Cookies()[0].Value)
	_, err := codec.Read(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCodec_Clear(t *testing.T) {
	codec := newTestCodec()

	ctx, rec := newContext("")
	codec.Clear(ctx)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, Name, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestNewCodec_SameSiteOptions(t *testing.T) {
	tests := []struct {
		configured string
		want       http.SameSite
	}{
		{"", http.SameSiteLaxMode},
		{"strict", http.SameSiteStrictMode},
		{"none", http.SameSiteNoneMode},
		{"bogus", http.SameSiteLaxMode},
	}

	for _, tt := range tests {
		cfg := &config.Config{Cookie: &config.CookieConfig{SameSite: tt.configured}}
		cfg.SecretKey.Session = "secret"

		assert.Equal(t, tt.want, NewCodec(cfg).sameSite, "sameSite=%q", tt.configured)
	}
}
