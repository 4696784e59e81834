package httpserver

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/campuscore/campuscore/pkg/logging"
)

// IPRateLimit throttles a route group per client IP. This is the blunt
// transport-level guard; the per-email OTP window lives in
// internal/ratelimit and is enforced inside the domain.
type IPRateLimit struct {
	limiters sync.Map // ip -> *rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewIPRateLimit(requests int, window time.Duration) *IPRateLimit {
	return &IPRateLimit{
		limit: rate.Limit(float64(requests) / window.Seconds()),
		burst: requests,
	}
}

func (rl *IPRateLimit) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := clientIP(c.Request())

		if !rl.limiterFor(ip).Allow() {
			logging.FromContext(c.Request().Context()).Warn("request_rate_limited", "ip", ip, "path", c.Path())
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate_limited")
		}
		return next(c)
	}
}

func (rl *IPRateLimit) limiterFor(ip string) *rate.Limiter {
	if v, ok := rl.limiters.Load(ip); ok {
		return v.(*rate.Limiter)
	}
	v, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rl.limit, rl.burst))
	return v.(*rate.Limiter)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if parts := strings.Split(xff, ","); len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
