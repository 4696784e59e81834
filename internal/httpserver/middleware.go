package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuscore/campuscore/pkg/tokens"
)

// RequireSession validates the session cookie and exposes identity and role
// to downstream handlers. The login subsystem itself has no protected
// routes; the management services mount this in front of theirs.
type RequireSession struct {
	JWTSecret []byte
}

func (m *RequireSession) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
		}

		claims, err := tokens.SessionClaimsFromToken(cookie.Value, m.JWTSecret)
		if err != nil || claims == nil {
			c.SetCookie(DeleteSessionCookie())
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("account_id", claims.Subject)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		return next(c)
	}
}
