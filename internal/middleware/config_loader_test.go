package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/session"
	"github.com/damacus/iron-files/internal/utils"
)

var testConfig = services.Configuration{AccessKeyID: "a", SecretAccessKey: "s", Region: "us-east-1", BucketName: "b"}

func runLoader(t *testing.T, req *http.Request, log zerolog.Logger) (echo.Context, *httptest.ResponseRecorder, bool) {
	t.Helper()
	holder := session.NewHolder(services.EncodedCodec{}, "", 0)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	called := false
	err := ConfigLoader(holder, log)(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "OK")
	})(c)
	require.NoError(t, err)
	return c, rec, called
}

func TestConfigLoader_LoadsCookie(t *testing.T) {
	value, err := services.EncodedCodec{}.Encode(testConfig)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: utils.ConfigCookieName, Value: value})
	req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"})

	c, _, called := runLoader(t, req, zerolog.Nop())

	assert.True(t, called)
	cfg, ok := ConfigFromContext(c)
	require.True(t, ok)
	assert.Equal(t, testConfig, cfg)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", c.Get(utils.ContextKeySession))
}

func TestConfigLoader_PassesThroughWithoutCookie(t *testing.T) {
	c, rec, called := runLoader(t, httptest.NewRequest(http.MethodGet, "/", nil), zerolog.Nop())

	assert.True(t, called, "no redirect: the page decides what to show")
	_, ok := ConfigFromContext(c)
	assert.False(t, ok)
	assert.Empty(t, rec.Result().Cookies())
}

func TestConfigLoader_ClearsInvalidCookie(t *testing.T) {
	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: utils.ConfigCookieName, Value: "invalid-encoded-value"})

	c, rec, called := runLoader(t, req, zerolog.New(&buf))

	assert.True(t, called)
	_, ok := ConfigFromContext(c)
	assert.False(t, ok)

	var cleared bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == utils.ConfigCookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "invalid cookie should be cleared")
	assert.Contains(t, buf.String(), "discarding unreadable configuration cookie")
}
