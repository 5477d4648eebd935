package progress

import (
	"context"
	"database/sql"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type ListProgressOptions struct {
	Limit  *int
	Offset *int
	UserID int
	// WithDetail loads the book (and its author) and the chapter of every
	// record.
	WithDetail bool

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// Retrieve returns the progress of a user in a book.
func (svc *Service) Retrieve(ctx context.Context, userID, bookID int) (*models.Progress, error) {
	progress := &models.Progress{}
	err := svc.db.NewSelect().
		Model(progress).
		Where("pr.user_id = ?", userID).
		Where("pr.book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Progress")
		}
		return nil, errors.WithStack(err)
	}
	return progress, nil
}

// Upsert stores the resume point of a user in a book. There is only ever one
// row per (user, book): a second write replaces the chapter and offset.
func (svc *Service) Upsert(ctx context.Context, userID, bookID, chapterID int, offset float64) (*models.Progress, error) {
	progress := &models.Progress{
		UserID:    userID,
		BookID:    bookID,
		ChapterID: chapterID,
		Offset:    offset,
		UpdatedAt: time.Now(),
	}

	_, err := svc.db.NewInsert().
		Model(progress).
		On("CONFLICT (user_id, book_id) DO UPDATE").
		Set("chapter_id = EXCLUDED.chapter_id").
		Set("offset_seconds = EXCLUDED.offset_seconds").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return progress, nil
}

// ValidateChapter makes sure chapterID belongs to bookID.
func (svc *Service) ValidateChapter(ctx context.Context, bookID, chapterID int) error {
	exists, err := svc.db.NewSelect().
		Model((*models.Chapter)(nil)).
		Where("id = ?", chapterID).
		Where("book_id = ?", bookID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.NotFound("Chapter")
	}
	return nil
}

func (svc *Service) List(ctx context.Context, opts ListProgressOptions) ([]*models.Progress, error) {
	p, _, err := svc.listWithTotal(ctx, opts)
	return p, errors.WithStack(err)
}

func (svc *Service) ListWithTotal(ctx context.Context, opts ListProgressOptions) ([]*models.Progress, int, error) {
	opts.includeTotal = true
	return svc.listWithTotal(ctx, opts)
}

func (svc *Service) listWithTotal(ctx context.Context, opts ListProgressOptions) ([]*models.Progress, int, error) {
	records := []*models.Progress{}
	var total int
	var err error

	q := svc.db.NewSelect().
		Model(&records).
		Where("pr.user_id = ?", opts.UserID).
		Order("pr.updated_at DESC", "pr.book_id ASC")

	if opts.WithDetail {
		q = q.
			Relation("Book").
			Relation("Book.Author").
			Relation("Chapter")
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return records, total, nil
}
