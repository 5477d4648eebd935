package auth

import (
	"net"
	"strings"
	"sync"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/time/rate"
)

// LoginLimiter keeps one token bucket per client key.
type LoginLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewLoginLimiter allows rps attempts per second per key, with up to burst
// attempts available immediately.
func NewLoginLimiter(rps float64, burst int) *LoginLimiter {
	return &LoginLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether another attempt for key is allowed right now.
func (l *LoginLimiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *LoginLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists = l.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(l.limit, l.burst)
	l.limiters[key] = limiter
	return limiter
}

// Middleware rejects requests over the limit with a 429, keyed by client IP.
func (l *LoginLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := clientIP(c)
		if !l.Allow(key) {
			logger.FromContext(c.Request().Context()).Warn("login rate limit exceeded", logger.Data{"ip": key})
			return errcodes.TooManyRequests()
		}
		return next(c)
	}
}

func clientIP(c echo.Context) string {
	req := c.Request()
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
	}
	if xri := req.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
