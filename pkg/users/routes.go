package users

import (
	"github.com/audiobookroom/audiobookroom/pkg/auth"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all user routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	userService := NewService(db)

	h := &handler{
		userService: userService,
	}

	users := e.Group("/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("", h.list, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationRead))
	users.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationRead))

	users.POST("", h.create, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite))
	users.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite))
	users.DELETE("/:id", h.delete, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite))

	// Anyone signed in can change their own password; changing someone
	// else's needs users:write, which the handler checks.
	users.POST("/:id/reset-password", h.resetPassword)

	return userService
}
