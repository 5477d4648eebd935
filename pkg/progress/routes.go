package progress

import (
	"github.com/audiobookroom/audiobookroom/pkg/auth"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		progressService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/detail", h.listDetail)
	g.GET("/:book_id", h.retrieve)
	g.PUT("/:book_id", h.set, authMiddleware.RequirePermission(models.ResourceProgress, models.OperationWrite))
}
