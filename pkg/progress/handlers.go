package progress

import (
	"net/http"
	"strconv"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/pagination"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	progressService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		return errcodes.NotFound("Progress")
	}

	userID, _ := c.Get("user_id").(int)
	progress, err := h.progressService.Retrieve(ctx, userID, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, progress))
}

func (h *handler) set(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := SetProgressPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, ok := c.Get("user_id").(int)
	if !ok || userID != params.UserID {
		return errcodes.NotAuthorized()
	}

	if err := h.progressService.ValidateChapter(ctx, bookID, params.ChapterID); err != nil {
		return errors.WithStack(err)
	}

	progress, err := h.progressService.Upsert(ctx, userID, bookID, params.ChapterID, params.Offset)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, progress))
}

func (h *handler) list(c echo.Context) error {
	return h.listProgress(c, false)
}

func (h *handler) listDetail(c echo.Context) error {
	return h.listProgress(c, true)
}

func (h *handler) listProgress(c echo.Context, withDetail bool) error {
	ctx := c.Request().Context()

	params := ListProgressQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, _ := c.Get("user_id").(int)
	limit, offset := params.Limit(), params.Offset()
	records, total, err := h.progressService.ListWithTotal(ctx, ListProgressOptions{
		Limit:      &limit,
		Offset:     &offset,
		UserID:     userID,
		WithDetail: withDetail,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.New(params.Query, records, total)))
}
