package books

import (
	"github.com/audiobookroom/audiobookroom/pkg/auth"
	"github.com/audiobookroom/audiobookroom/pkg/config"
	"github.com/audiobookroom/audiobookroom/pkg/jobs"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	h := &handler{
		bookService: NewService(db),
		jobService:  jobs.NewService(db),
		libraryDir:  cfg.LibraryDir,
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/detail", h.detail)
	g.DELETE("/:id", h.delete, authMiddleware.RequirePermission(models.ResourceBooks, models.OperationWrite))
	g.POST("/import", h.importBook, authMiddleware.RequirePermission(models.ResourceBooks, models.OperationWrite))
}
