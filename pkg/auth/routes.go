package auth

import (
	"github.com/audiobookroom/audiobookroom/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all auth routes and returns the service and the
// middleware the rest of the server authenticates with.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config) (*Service, *Middleware) {
	authService := NewService(db, cfg.JWTSecret)
	authMiddleware := NewMiddleware(authService)
	limiter := NewLoginLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)

	h := &handler{
		authService: authService,
	}

	auth := e.Group("/auth")
	auth.POST("/login", h.login, limiter.Middleware)
	auth.POST("/logout", h.logout)
	auth.GET("/status", h.status)
	auth.POST("/setup", h.setup, limiter.Middleware)
	auth.POST("/signup", h.signup, limiter.Middleware)
	auth.GET("/me", h.me, authMiddleware.Authenticate)

	return authService, authMiddleware
}
