// Package session keeps the connection configuration in a browser cookie.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/utils"
)

// ErrNoConfig means the request carries no configuration cookie
var ErrNoConfig = errors.New("no saved configuration")

// Holder saves, loads and clears the configuration cookie and the
// session id cookie used to find the upload board.
type Holder struct {
	codec      services.ConfigCodec
	cookieName string
	ttl        time.Duration
}

// NewHolder creates a holder. Empty cookieName and zero ttl fall back to defaults.
func NewHolder(codec services.ConfigCodec, cookieName string, ttl time.Duration) *Holder {
	if cookieName == "" {
		cookieName = utils.ConfigCookieName
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Holder{codec: codec, cookieName: cookieName, ttl: ttl}
}

// CookieName returns the configuration cookie name
func (h *Holder) CookieName() string {
	return h.cookieName
}

// Save stores cfg in the configuration cookie
func (h *Holder) Save(c echo.Context, cfg services.Configuration) error {
	value, err := h.codec.Encode(cfg)
	if err != nil {
		return err
	}
	c.SetCookie(h.cookie(c, h.cookieName, value, time.Now().Add(h.ttl)))
	return nil
}

// Load reads the configuration cookie. ErrNoConfig when it is absent.
func (h *Holder) Load(c echo.Context) (services.Configuration, error) {
	cookie, err := c.Cookie(h.cookieName)
	if err != nil || cookie.Value == "" {
		return services.Configuration{}, ErrNoConfig
	}
	return h.codec.Decode(cookie.Value)
}

// Clear removes both cookies
func (h *Holder) Clear(c echo.Context) {
	for _, name := range []string{h.cookieName, utils.SessionCookieName} {
		cookie := h.cookie(c, name, "", time.Now().Add(-1*time.Hour))
		cookie.MaxAge = -1
		c.SetCookie(cookie)
	}
}

// SessionID returns the session id, issuing a new cookie when there is none
func (h *Holder) SessionID(c echo.Context) string {
	if id, ok := h.ExistingSessionID(c); ok {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(h.cookie(c, utils.SessionCookieName, id, time.Now().Add(h.ttl)))
	return id
}

// ExistingSessionID returns the session id carried by the request, if any
func (h *Holder) ExistingSessionID(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(utils.SessionCookieName)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}

func (h *Holder) cookie(c echo.Context, name, value string, expires time.Time) *http.Cookie {
	cookie := new(http.Cookie)
	cookie.Name = name
	cookie.Value = value
	cookie.Expires = expires
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	cookie.Secure = RequestIsSecure(c)
	return cookie
}

// RequestIsSecure reports whether the request arrived over TLS, directly or behind a proxy
func RequestIsSecure(c echo.Context) bool {
	req := c.Request()
	if req.TLS != nil {
		return true
	}

	return req.Header.Get("X-Forwarded-Proto") == "https"
}
