package jobs

import (
	"github.com/audiobookroom/audiobookroom/pkg/auth"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers job routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	jobService := NewService(db)

	h := &handler{
		jobService: jobService,
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, authMiddleware.RequirePermission(models.ResourceJobs, models.OperationWrite))
}
