// Package catalog adapts the bun services to the metadata and progress store
// the player reads and writes.
package catalog

import (
	"context"

	"github.com/audiobookroom/audiobookroom/pkg/books"
	"github.com/audiobookroom/audiobookroom/pkg/chapters"
	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/audiobookroom/audiobookroom/pkg/progress"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Catalog struct {
	bookService     *books.Service
	chapterService  *chapters.Service
	progressService *progress.Service
}

func New(db *bun.DB) *Catalog {
	return &Catalog{
		bookService:     books.NewService(db),
		chapterService:  chapters.NewService(db),
		progressService: progress.NewService(db),
	}
}

func (c *Catalog) GetBookDetail(ctx context.Context, bookID int) (*models.Book, error) {
	return c.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID})
}

func (c *Catalog) GetChapterDetail(ctx context.Context, chapterID int) (*models.Chapter, error) {
	return c.chapterService.RetrieveChapter(ctx, chapters.RetrieveChapterOptions{ID: &chapterID})
}

func (c *Catalog) SearchChapterByOrdinal(ctx context.Context, bookID, ordinal int) (*models.Chapter, error) {
	return c.chapterService.SearchByPosition(ctx, bookID, ordinal)
}

func (c *Catalog) GetProgress(ctx context.Context, accountID, bookID int) (*models.Progress, error) {
	p, err := c.progressService.Retrieve(ctx, accountID, bookID)
	if errors.Is(err, errcodes.NotFound("Progress")) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Catalog) SetProgress(ctx context.Context, accountID, bookID, chapterID int, offset float64) error {
	_, err := c.progressService.Upsert(ctx, accountID, bookID, chapterID, offset)
	return err
}
