package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigCookie = "s3-config"

func csrfServer() *echo.Echo {
	e := echo.New()
	e.Use(CSRF(testConfigCookie))
	e.GET("/csrf", func(c echo.Context) error {
		token, _ := c.Get("csrf").(string)
		return c.String(http.StatusOK, token)
	})
	e.POST("/submit", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func TestCSRFMiddlewareRejectsCookieBackedPostWithoutToken(t *testing.T) {
	e := csrfServer()

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: testConfigCookie, Value: "saved"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCSRFMiddlewareSkipsRequestsWithoutConfigCookie(t *testing.T) {
	e := csrfServer()

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFMiddlewareAllowsPostWithTokenHeaderAndCookie(t *testing.T) {
	e := csrfServer()

	getReq := httptest.NewRequest(http.MethodGet, "/csrf", nil)
	getRec := httptest.NewRecorder()
	e.ServeHTTP(getRec, getReq)

	require.Equal(t, http.StatusOK, getRec.Code)
	token := strings.TrimSpace(getRec.Body.String())
	require.NotEmpty(t, token)

	var csrfCookie *http.Cookie
	for _, cookie := range getRec.Result().Cookies() {
		if cookie.Name == "csrf" {
			csrfCookie = cookie
			break
		}
	}
	require.NotNil(t, csrfCookie)

	postReq := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{}`))
	postReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	postReq.Header.Set("X-CSRF-Token", token)
	postReq.AddCookie(csrfCookie)
	postReq.AddCookie(&http.Cookie{Name: testConfigCookie, Value: "saved"})
	postRec := httptest.NewRecorder()
	e.ServeHTTP(postRec, postReq)

	assert.Equal(t, http.StatusOK, postRec.Code)
}
