package books

import (
	"net/http"
	"strconv"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/fileutils"
	"github.com/audiobookroom/audiobookroom/pkg/jobs"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/audiobookroom/audiobookroom/pkg/pagination"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	bookService *Service
	jobService  *jobs.Service
	libraryDir  string
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	limit, offset := params.Limit(), params.Offset()
	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:    &limit,
		Offset:   &offset,
		AuthorID: params.AuthorID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.New(params.Query, books, total)))
}

func (h *handler) detail(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := DetailQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, _ := c.Get("user_id").(int)
	detail, err := h.bookService.RetrieveDetail(ctx, id, DetailOptions{
		UserID:        userID,
		ChapterLimit:  params.Limit(),
		ChapterOffset: params.Offset(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, detail))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, authorDeleted, err := h.bookService.DeleteBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	// The rows are gone at this point, so a leftover folder is only logged.
	if err := fileutils.RemoveBookFolder(h.libraryDir, book.Folder); err != nil {
		log.Err(err).Warn("failed to remove book folder", logger.Data{"book_id": book.ID, "folder": book.Folder})
	}

	log.Info("deleted book", logger.Data{"book_id": book.ID, "author_deleted": authorDeleted})

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) importBook(c echo.Context) error {
	ctx := c.Request().Context()

	params := ImportBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	job, err := h.jobService.EnqueueImport(ctx, &models.JobImportData{
		AuthorName: params.AuthorName,
		BookTitle:  params.BookTitle,
		SourceDir:  params.SourceDir,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusAccepted, job))
}
