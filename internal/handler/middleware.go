package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/treeci/treeci/internal"
	"github.com/treeci/treeci/internal/settings"
)

// RequireWebhookKey guards trigger endpoints with the deploy-time webhook
// key.
func RequireWebhookKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(internal.WebhookKeyHeader)
		expected := settings.Settings.WebhookKey
		if expected == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook key")
		}
		return next(c)
	}
}
