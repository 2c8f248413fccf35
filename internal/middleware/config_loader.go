package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/session"
	"github.com/damacus/iron-files/internal/utils"
)

// ConfigLoader reads the configuration cookie once per request and stores it
// in the context. Requests without one pass through untouched; a cookie that
// cannot be decoded is cleared.
func ConfigLoader(holder *session.Holder, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cfg, err := holder.Load(c)
			switch {
			case err == nil:
				c.Set(utils.ContextKeyConfig, cfg)
			case errors.Is(err, session.ErrNoConfig):
			default:
				// Invalid cookie - Clear it so the connect page shows
				log.Warn().Err(err).Str("path", c.Path()).Msg("discarding unreadable configuration cookie")
				holder.Clear(c)
			}

			if id, ok := holder.ExistingSessionID(c); ok {
				c.Set(utils.ContextKeySession, id)
			}

			return next(c)
		}
	}
}

// ConfigFromContext returns the configuration loaded by ConfigLoader
func ConfigFromContext(c echo.Context) (services.Configuration, bool) {
	cfg, ok := c.Get(utils.ContextKeyConfig).(services.Configuration)
	return cfg, ok
}
