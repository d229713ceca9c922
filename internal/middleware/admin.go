// admin.go implements bearer-token authentication for the admin API.
// Session handling belongs to the external auth provider; the server only
// verifies a shared admin token on /api/admin/* routes.
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/halcyonlab/imgstash/internal/apperror"
	"github.com/halcyonlab/imgstash/internal/config"
)

// RequireAdmin returns middleware that rejects requests lacking a valid
// admin bearer token. When a bcrypt hash is configured it is preferred;
// the plain-token comparison is constant time either way.
func RequireAdmin(cfg config.AdminConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return apperror.NewUnauthorized("admin token required")
			}

			if cfg.TokenHash != "" {
				if err := bcrypt.CompareHashAndPassword([]byte(cfg.TokenHash), []byte(token)); err != nil {
					return apperror.NewUnauthorized("invalid admin token")
				}
				return next(c)
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
				return apperror.NewUnauthorized("invalid admin token")
			}
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
