package chapters

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		chapterService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/search", h.search)
	g.GET("/batch", h.batch)
	g.GET("/:id", h.retrieve)
}
