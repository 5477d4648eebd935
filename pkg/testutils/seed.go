package testutils

import (
	"context"
	"fmt"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/auth"
	"github.com/audiobookroom/audiobookroom/pkg/fileutils"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// SeedBookOptions describes a book to insert directly into the catalog,
// without any files on disk.
type SeedBookOptions struct {
	AuthorName      string
	Title           string
	ChapterCount    int
	ChapterDuration float64
	MediaType       string
}

// SeedBook inserts an author (reusing an existing one with the same name), a
// book and its chapters. Chapter positions are 0..ChapterCount-1.
func SeedBook(ctx context.Context, db bun.IDB, opts SeedBookOptions) (*models.Book, []*models.Chapter, error) {
	if opts.MediaType == "" {
		opts.MediaType = models.MediaTypeMP3
	}
	now := time.Now()

	author := &models.Author{}
	err := db.NewSelect().Model(author).Where("a.name = ? COLLATE NOCASE", opts.AuthorName).Scan(ctx)
	if err != nil {
		author = &models.Author{CreatedAt: now, UpdatedAt: now, Name: opts.AuthorName}
		if _, err := db.NewInsert().Model(author).Returning("*").Exec(ctx); err != nil {
			return nil, nil, errors.WithStack(err)
		}
	}

	folder := fileutils.BookFolder(opts.AuthorName, opts.Title)
	book := &models.Book{
		CreatedAt:    now,
		UpdatedAt:    now,
		AuthorID:     author.ID,
		Title:        opts.Title,
		ChapterCount: opts.ChapterCount,
		Folder:       folder,
		MediaType:    opts.MediaType,
	}
	if opts.ChapterDuration > 0 {
		total := opts.ChapterDuration * float64(opts.ChapterCount)
		book.TotalDuration = &total
	}
	if _, err := db.NewInsert().Model(book).Returning("*").Exec(ctx); err != nil {
		return nil, nil, errors.WithStack(err)
	}
	book.Author = author

	chapters := make([]*models.Chapter, 0, opts.ChapterCount)
	for i := 0; i < opts.ChapterCount; i++ {
		ch := &models.Chapter{
			CreatedAt: now,
			UpdatedAt: now,
			BookID:    book.ID,
			Position:  i,
			Name:      fmt.Sprintf("Chapter %d", i+1),
			Path:      folder + "/" + fileutils.ChapterFileName(i+1, "."+opts.MediaType),
		}
		if opts.ChapterDuration > 0 {
			d := opts.ChapterDuration
			ch.Duration = &d
		}
		chapters = append(chapters, ch)
	}
	if len(chapters) > 0 {
		if _, err := db.NewInsert().Model(&chapters).Returning("*").Exec(ctx); err != nil {
			return nil, nil, errors.WithStack(err)
		}
	}

	return book, chapters, nil
}

// SeedUser inserts an active user with the given role name.
func SeedUser(ctx context.Context, db bun.IDB, username, password, roleName string) (*models.User, error) {
	role := &models.Role{}
	err := db.NewSelect().
		Model(role).
		Relation("Permissions").
		Where("r.name = ?", roleName).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get role")
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		PasswordHash: hashedPassword,
		RoleID:       role.ID,
		IsActive:     true,
	}
	if _, err := db.NewInsert().Model(user).Returning("*").Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	user.Role = role

	return user, nil
}
