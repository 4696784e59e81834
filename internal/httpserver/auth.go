package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuscore/campuscore/internal/otp"
	"github.com/campuscore/campuscore/internal/roles"
	"github.com/campuscore/campuscore/internal/service"
	"github.com/campuscore/campuscore/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.LoginService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

type verifyOTPRequest struct {
	Email    string `json:"email"`
	UserType string `json:"userType"`
	OTP      string `json:"otp"`
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	outcome, err := h.Svc.InitiateLogin(ctx, req.Email, req.Password, req.UserType)
	if err != nil {
		return httpError(err)
	}

	if outcome.OTPSent {
		return c.JSON(http.StatusOK, echo.Map{
			"otpSent":    true,
			"redirectTo": "/verify-otp",
			"email":      req.Email,
			"userType":   req.UserType,
		})
	}

	sess := outcome.Session
	c.SetCookie(SessionCookie(sess.Token, sess.ExpiresAt))
	return c.JSON(http.StatusOK, echo.Map{
		"user":       sess.Account,
		"redirectTo": sess.RedirectTo,
		"token":      sess.Token,
		"userType":   req.UserType,
	})
}

func (h *AuthHTTP) VerifyOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_verify_otp")

	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_otp_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sess, err := h.Svc.CompleteLogin(ctx, req.Email, req.UserType, req.OTP)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(SessionCookie(sess.Token, sess.ExpiresAt))
	return c.JSON(http.StatusOK, echo.Map{
		"user":       sess.Account,
		"redirectTo": sess.RedirectTo,
		"token":      sess.Token,
		"userType":   req.UserType,
		"verified":   true,
	})
}

// httpError maps the domain error set onto stable status codes and
// machine-readable messages. Every login failure surfaces here, once.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, "validation_error")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, roles.ErrRoleMismatch):
		return echo.NewHTTPError(http.StatusForbidden, "role_mismatch")
	case errors.Is(err, roles.ErrNotAdmin):
		return echo.NewHTTPError(http.StatusForbidden, "not_admin")
	case errors.Is(err, otp.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate_limited")
	case errors.Is(err, otp.ErrNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, "otp_not_found")
	case errors.Is(err, otp.ErrExpired):
		return echo.NewHTTPError(http.StatusBadRequest, "otp_expired")
	case errors.Is(err, otp.ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, "otp_invalid")
	case errors.Is(err, service.ErrAccountNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "account_not_found")
	case errors.Is(err, otp.ErrDelivery):
		return echo.NewHTTPError(http.StatusInternalServerError, "delivery_failed")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal_error")
	}
}
