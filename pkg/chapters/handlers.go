package chapters

import (
	"net/http"
	"strconv"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/pagination"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	chapterService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListChaptersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	limit, offset := params.Limit(), params.Offset()
	chapters, total, err := h.chapterService.ListChaptersWithTotal(ctx, ListChaptersOptions{
		Limit:  &limit,
		Offset: &offset,
		BookID: &params.BookID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.New(params.Query, chapters, total)))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Chapter")
	}

	chapter, err := h.chapterService.RetrieveChapter(ctx, RetrieveChapterOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) search(c echo.Context) error {
	ctx := c.Request().Context()

	params := SearchChapterQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapter, err := h.chapterService.SearchByPosition(ctx, params.BookID, *params.Position)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) batch(c echo.Context) error {
	ctx := c.Request().Context()

	params := BatchChaptersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapters, err := h.chapterService.ListChapters(ctx, ListChaptersOptions{IDs: params.IDs})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"chapters": chapters,
	}))
}
