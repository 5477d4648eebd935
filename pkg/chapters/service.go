package chapters

import (
	"context"
	"database/sql"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveChapterOptions struct {
	ID *int
	// BookID and Position together select the chapter at an ordinal.
	BookID   *int
	Position *int
}

type ListChaptersOptions struct {
	Limit  *int
	Offset *int
	BookID *int
	IDs    []int

	includeTotal bool
}

type Service struct {
	db bun.IDB
}

// NewService accepts either a *bun.DB or a bun.Tx.
func NewService(db bun.IDB) *Service {
	return &Service{db: db}
}

// CreateChapters inserts the chapters of a book in one statement.
func (svc *Service) CreateChapters(ctx context.Context, chapters []*models.Chapter) error {
	if len(chapters) == 0 {
		return nil
	}
	now := time.Now()
	for _, ch := range chapters {
		if ch.CreatedAt.IsZero() {
			ch.CreatedAt = now
		}
		ch.UpdatedAt = ch.CreatedAt
	}

	_, err := svc.db.NewInsert().
		Model(&chapters).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveChapter(ctx context.Context, opts RetrieveChapterOptions) (*models.Chapter, error) {
	chapter := &models.Chapter{}

	q := svc.db.NewSelect().Model(chapter)

	if opts.ID != nil {
		q = q.Where("ch.id = ?", *opts.ID)
	}
	if opts.BookID != nil {
		q = q.Where("ch.book_id = ?", *opts.BookID)
	}
	if opts.Position != nil {
		q = q.Where("ch.position = ?", *opts.Position)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Chapter")
		}
		return nil, errors.WithStack(err)
	}

	return chapter, nil
}

// SearchByPosition returns the chapter at the 0-based position of a book.
func (svc *Service) SearchByPosition(ctx context.Context, bookID, position int) (*models.Chapter, error) {
	return svc.RetrieveChapter(ctx, RetrieveChapterOptions{BookID: &bookID, Position: &position})
}

func (svc *Service) ListChapters(ctx context.Context, opts ListChaptersOptions) ([]*models.Chapter, error) {
	c, _, err := svc.listChaptersWithTotal(ctx, opts)
	return c, errors.WithStack(err)
}

func (svc *Service) ListChaptersWithTotal(ctx context.Context, opts ListChaptersOptions) ([]*models.Chapter, int, error) {
	opts.includeTotal = true
	return svc.listChaptersWithTotal(ctx, opts)
}

func (svc *Service) listChaptersWithTotal(ctx context.Context, opts ListChaptersOptions) ([]*models.Chapter, int, error) {
	chapters := []*models.Chapter{}
	var total int
	var err error

	q := svc.db.NewSelect().
		Model(&chapters).
		Order("ch.book_id ASC", "ch.position ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.BookID != nil {
		q = q.Where("ch.book_id = ?", *opts.BookID)
	}
	if opts.IDs != nil {
		q = q.Where("ch.id IN (?)", bun.In(opts.IDs))
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return chapters, total, nil
}
