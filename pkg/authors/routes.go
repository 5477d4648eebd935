package authors

import (
	"github.com/audiobookroom/audiobookroom/pkg/books"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		authorService: NewService(db),
		bookService:   books.NewService(db),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/books", h.books)
}
