package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the caller's user id.
const UserIDKey = "userId"

// LocalUserID identifies callers that present no token.
const LocalUserID = "local-user"

// Identity resolves the caller from an "Authorization: Bearer" header, or a
// "token" query parameter for websocket upgrades. No token means the local
// user; a token that fails validation is rejected.
func (s *Service) Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				token = c.QueryParam("token")
			}
			if token == "" {
				c.Set(UserIDKey, LocalUserID)
				return next(c)
			}

			claims, err := s.ValidateToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(UserIDKey, claims.Subject)
			return next(c)
		}
	}
}

// UserID returns the caller resolved by Identity, or the local user when
// the middleware did not run.
func UserID(c echo.Context) string {
	if id, ok := c.Get(UserIDKey).(string); ok && id != "" {
		return id
	}
	return LocalUserID
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
