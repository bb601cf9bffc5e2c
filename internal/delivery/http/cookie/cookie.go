// Package cookie writes and reads the tamper-evident session cookie.
package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"staan/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Name is the session cookie name.
const Name = "staan_session"

// maxAge matches the server-side session TTL (1 hour).
const maxAge = 3600

// ErrNoSession is returned when the request carries no valid session cookie.
var ErrNoSession = errors.New("no session cookie")

// Codec signs session ids into cookie values and verifies them back.
// The value format is "<uuid>.<hex hmac-sha256 of the uuid>", keyed by
// the session secret, so a tampered cookie is rejected before any
// database lookup.
type Codec struct {
	secret   []byte
	secure   bool
	sameSite http.SameSite
}

// NewCodec builds the codec from configuration.
func NewCodec(cfg *config.Config) *Codec {
	secure := false
	sameSite := http.SameSiteLaxMode
	if cfg.Cookie != nil {
		secure = cfg.Cookie.Secure
		switch strings.ToLower(cfg.Cookie.SameSite) {
		case "strict":
			sameSite = http.SameSiteStrictMode
		case "none":
			sameSite = http.SameSiteNoneMode
		}
	}

	return &Codec{
		secret:   []byte(cfg.SecretKey.Session),
		secure:   secure,
		sameSite: sameSite,
	}
}

// Write sets the session cookie on the response.
func (c *Codec) Write(ec echo.Context, sessionID uuid.UUID) {
	ec.SetCookie(&http.Cookie{
		Name:     Name,
		Value:    c.encode(sessionID),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	})
}

// Read extracts and verifies the session id from the request cookie.
func (c *Codec) Read(ec echo.Context) (uuid.UUID, error) {
	raw, err := ec.Cookie(Name)
	if err != nil || raw.Value == "" {
		return uuid.Nil, ErrNoSession
	}

	id, sig, found := strings.Cut(raw.Value, ".")
	if !found {
		return uuid.Nil, ErrNoSession
	}

	if !hmac.Equal([]byte(sig), []byte(c.sign(id))) {
		return uuid.Nil, ErrNoSession
	}

	sessionID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrNoSession
	}

	return sessionID, nil
}

// Clear expires the session cookie on the response.
func (c *Codec) Clear(ec echo.Context) {
	ec.SetCookie(&http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	})
}

func (c *Codec) encode(sessionID uuid.UUID) string {
	id := sessionID.String()

	return id + "." + c.sign(id)
}

func (c *Codec) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))

	return hex.EncodeToString(mac.Sum(nil))
}
