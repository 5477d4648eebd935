package testutils

import (
	"net/http"

	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin listener"`
}

type createUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// createUser creates a test user, an admin unless another role is given.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}
	if req.Role == "" {
		req.Role = models.RoleAdmin
	}

	user, err := SeedUser(ctx, h.db, req.Username, req.Password, req.Role)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
	}))
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

// deleteAllUsers deletes all users and their progress.
// DELETE /test/users.
func (h *handler) deleteAllUsers(c echo.Context) error {
	ctx := c.Request().Context()

	_, err := h.db.NewDelete().
		Model((*models.Progress)(nil)).
		Where("1=1").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete progress")
	}

	result, err := h.db.NewDelete().
		Model((*models.User)(nil)).
		Where("1=1").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete users")
	}

	deleted, _ := result.RowsAffected()

	return errors.WithStack(c.JSON(http.StatusOK, deleteResponse{Deleted: int(deleted)}))
}

type createBookRequest struct {
	AuthorName      string  `json:"author_name" validate:"required"`
	Title           string  `json:"title" validate:"required"`
	ChapterCount    int     `json:"chapter_count" validate:"min=0,max=1000"`
	ChapterDuration float64 `json:"chapter_duration" validate:"min=0"`
	MediaType       string  `json:"media_type" validate:"omitempty,oneof=mp3 m4a"`
}

// createBook inserts a book with chapters but no files.
// POST /test/books.
func (h *handler) createBook(c echo.Context) error {
	ctx := c.Request().Context()

	var req createBookRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	book, chapters, err := SeedBook(ctx, h.db, SeedBookOptions(req))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, map[string]any{
		"book":     book,
		"chapters": chapters,
	}))
}

// deleteCatalog removes every author, book, chapter and progress record.
// DELETE /test/catalog.
func (h *handler) deleteCatalog(c echo.Context) error {
	ctx := c.Request().Context()

	deleted := 0
	for _, model := range []any{
		(*models.Progress)(nil),
		(*models.Chapter)(nil),
		(*models.Book)(nil),
		(*models.Author)(nil),
	} {
		result, err := h.db.NewDelete().Model(model).Where("1=1").Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, _ := result.RowsAffected()
		deleted += int(n)
	}

	return errors.WithStack(c.JSON(http.StatusOK, deleteResponse{Deleted: deleted}))
}
