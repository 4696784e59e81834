package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthHandler *AuthHTTP
	JWTSecret   []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// blunt per-IP guard on the auth surface; the per-email OTP throttle is
	// enforced separately in the domain
	authLimit := NewIPRateLimit(20, time.Minute)

	auth := e.Group("/auth")
	auth.Use(authLimit.Middleware)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/verify-otp", d.AuthHandler.VerifyOTP)
}
