package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID     *int
	Folder *string
}

type ListBooksOptions struct {
	Limit    *int
	Offset   *int
	AuthorID *int

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
}

// DetailOptions selects the chapter page and whose progress is included in a
// book detail.
type DetailOptions struct {
	UserID        int
	ChapterLimit  int
	ChapterOffset int
}

// Detail is a book together with its author, one page of chapters and the
// caller's progress.
type Detail struct {
	Book          *models.Book      `json:"book"`
	Chapters      []*models.Chapter `json:"chapters"`
	TotalChapters int               `json:"total_chapters"`
	Progress      *models.Progress  `json:"progress"`
}

type Service struct {
	db bun.IDB
}

// NewService accepts either a *bun.DB or a bun.Tx.
func NewService(db bun.IDB) *Service {
	return &Service{db}
}

func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Author")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.Folder != nil {
		q = q.Where("b.folder = ?", *opts.Folder)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Author").
		Order("b.id ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.AuthorID != nil {
		q = q.Where("b.author_id = ?", *opts.AuthorID)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	book.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// RetrieveDetail loads everything the book page needs in one call.
func (svc *Service) RetrieveDetail(ctx context.Context, bookID int, opts DetailOptions) (*Detail, error) {
	book, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &bookID})
	if err != nil {
		return nil, err
	}

	chapters := []*models.Chapter{}
	q := svc.db.NewSelect().
		Model(&chapters).
		Where("ch.book_id = ?", bookID).
		Order("ch.position ASC")
	if opts.ChapterLimit > 0 {
		q = q.Limit(opts.ChapterLimit)
	}
	if opts.ChapterOffset > 0 {
		q = q.Offset(opts.ChapterOffset)
	}
	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	detail := &Detail{
		Book:          book,
		Chapters:      chapters,
		TotalChapters: total,
	}

	progress := &models.Progress{}
	err = svc.db.NewSelect().
		Model(progress).
		Relation("Chapter").
		Where("pr.user_id = ?", opts.UserID).
		Where("pr.book_id = ?", bookID).
		Scan(ctx)
	switch {
	case err == nil:
		detail.Progress = progress
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, errors.WithStack(err)
	}

	return detail, nil
}

// DeleteBook removes the book with its progress and chapters, and its author
// when no other book references it. The deleted book is returned so the
// caller can remove its files once the transaction has committed.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) (*models.Book, bool, error) {
	var book *models.Book
	authorDeleted := false

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		book, err = NewService(tx).RetrieveBook(ctx, RetrieveBookOptions{ID: &bookID})
		if err != nil {
			return err
		}

		_, err = tx.NewDelete().
			Model((*models.Progress)(nil)).
			Where("book_id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Chapter)(nil)).
			Where("book_id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		remaining, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("author_id = ?", book.AuthorID).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if remaining == 0 {
			_, err = tx.NewDelete().
				Model((*models.Author)(nil)).
				Where("id = ?", book.AuthorID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			authorDeleted = true
		}

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return book, authorDeleted, nil
}
