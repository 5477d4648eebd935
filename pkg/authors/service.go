package authors

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveAuthorOptions struct {
	ID   *int
	Name *string
}

type ListAuthorsOptions struct {
	Limit  *int
	Offset *int

	includeTotal bool
}

type Service struct {
	db bun.IDB
}

// NewService accepts either a *bun.DB or a bun.Tx so the importer can reuse
// it inside a transaction.
func NewService(db bun.IDB) *Service {
	return &Service{db}
}

func (svc *Service) CreateAuthor(ctx context.Context, author *models.Author) error {
	now := time.Now()
	if author.CreatedAt.IsZero() {
		author.CreatedAt = now
	}
	author.UpdatedAt = author.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(author).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveAuthor(ctx context.Context, opts RetrieveAuthorOptions) (*models.Author, error) {
	author := &models.Author{}

	q := svc.db.
		NewSelect().
		Model(author)

	if opts.ID != nil {
		q = q.Where("a.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("a.name = ? COLLATE NOCASE", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return nil, errors.WithStack(err)
	}

	return author, nil
}

// FindOrCreateAuthor returns the author with the given name (case-insensitive),
// creating it with an empty avatar and description if it doesn't exist yet.
func (svc *Service) FindOrCreateAuthor(ctx context.Context, name string) (*models.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("author name cannot be empty")
	}

	author, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{Name: &name})
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, errcodes.NotFound("Author")) {
		return nil, err
	}

	author = &models.Author{Name: name}
	err = svc.CreateAuthor(ctx, author)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{Name: &name})
		}
		return nil, err
	}
	return author, nil
}

func (svc *Service) ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	a, _, err := svc.listAuthorsWithTotal(ctx, opts)
	return a, errors.WithStack(err)
}

func (svc *Service) ListAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	opts.includeTotal = true
	return svc.listAuthorsWithTotal(ctx, opts)
}

func (svc *Service) listAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	authors := []*models.Author{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&authors).
		Order("a.id ASC")

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

	return authors, total, nil
}

// CountBooks returns how many books reference the author.
func (svc *Service) CountBooks(ctx context.Context, authorID int) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Where("author_id = ?", authorID).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// DeleteAuthor removes the author row. Callers make sure no books reference it.
func (svc *Service) DeleteAuthor(ctx context.Context, authorID int) error {
	_, err := svc.db.NewDelete().
		Model((*models.Author)(nil)).
		Where("id = ?", authorID).
		Exec(ctx)
	return errors.WithStack(err)
}
