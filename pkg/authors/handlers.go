package authors

import (
	"net/http"
	"strconv"

	"github.com/audiobookroom/audiobookroom/pkg/books"
	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/pagination"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	authorService *Service
	bookService   *books.Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListAuthorsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	limit, offset := params.Limit(), params.Offset()
	authors, total, err := h.authorService.ListAuthorsWithTotal(ctx, ListAuthorsOptions{
		Limit:  &limit,
		Offset: &offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.New(params.Query, authors, total)))
}

func (h *handler) books(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	params := ListAuthorBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if _, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &id}); err != nil {
		return errors.WithStack(err)
	}

	limit, offset := params.Limit(), params.Offset()
	bookList, total, err := h.bookService.ListBooksWithTotal(ctx, books.ListBooksOptions{
		AuthorID: &id,
		Limit:    &limit,
		Offset:   &offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.New(params.Query, bookList, total)))
}
