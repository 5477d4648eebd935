// Package roles manages the permission sets users are assigned. The admin and
// listener roles are seeded by migration and cannot be changed.
package roles

import (
	"github.com/audiobookroom/audiobookroom/pkg/auth"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers role routes. Roles belong to user
// management, so they reuse the users permissions.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{roleService: NewService(db)}

	write := authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite)

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, write)
	g.PUT("/:id/permissions", h.setPermissions, write)
	g.DELETE("/:id", h.delete, write)
}
