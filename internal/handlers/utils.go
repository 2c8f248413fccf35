package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/damacus/iron-files/internal/middleware"
	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/utils"
)

// Response is the envelope of every JSON answer
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ResolveConfig picks the configuration for a request: the one in the body
// when present, otherwise the one loaded from the cookie.
func ResolveConfig(c echo.Context, raw json.RawMessage) (services.Configuration, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed != "" && trimmed != "null" {
		return services.ParseConfiguration([]byte(trimmed))
	}
	if cfg, ok := middleware.ConfigFromContext(c); ok {
		return cfg, nil
	}
	return services.Configuration{}, &services.ValidationError{Reason: "S3 config is required"}
}

// SessionID returns the session id loaded by the config middleware
func SessionID(c echo.Context) (string, bool) {
	id, ok := c.Get(utils.ContextKeySession).(string)
	return id, ok && id != ""
}

// StatusFor maps the error taxonomy onto HTTP status codes
func StatusFor(err error) int {
	switch services.Kind(err) {
	case services.ErrValidation:
		return http.StatusBadRequest
	case services.ErrAuth:
		return http.StatusUnauthorized
	case services.ErrNotFound:
		return http.StatusNotFound
	case services.ErrTransport:
		return http.StatusBadGateway
	}
	var storeErr *services.StoreError
	if errors.As(err, &storeErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Fail writes {success:false, message}. Validation errors speak for themselves;
// everything else is prefixed with what was being attempted.
func Fail(c echo.Context, err error, action string) error {
	status := StatusFor(err)
	message := err.Error()
	if status != http.StatusBadRequest && action != "" {
		message = action + ": " + message
	}
	return c.JSON(status, Response{Success: false, Message: message})
}
