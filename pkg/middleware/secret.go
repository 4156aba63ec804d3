package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/crehub/news-digest/internal/apperr"
	"github.com/labstack/echo/v4"
)

const SecretHeader = "X-Cron-Secret"

// SharedSecret rejects requests whose SecretHeader does not match secret.
// An empty secret disables the route with 503 so an unconfigured deployment is never open.
func SharedSecret(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "trigger secret is not configured")
			}
			got := c.Request().Header.Get(SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return apperr.NewUnauthorized("invalid trigger secret")
			}
			return next(c)
		}
	}
}
