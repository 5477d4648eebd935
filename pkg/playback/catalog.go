package playback

import (
	"context"

	"github.com/audiobookroom/audiobookroom/pkg/models"
)

// Catalog is the library metadata a session reads and the progress store it
// writes to.
type Catalog interface {
	GetBookDetail(ctx context.Context, bookID int) (*models.Book, error)
	GetChapterDetail(ctx context.Context, chapterID int) (*models.Chapter, error)
	// SearchChapterByOrdinal returns the chapter at the 0-based position of a
	// book.
	SearchChapterByOrdinal(ctx context.Context, bookID, ordinal int) (*models.Chapter, error)
	// GetProgress returns nil without an error when the account has never
	// played the book.
	GetProgress(ctx context.Context, accountID, bookID int) (*models.Progress, error)
	ProgressWriter
}

// ProgressWriter persists the resume point of an account in a book.
type ProgressWriter interface {
	SetProgress(ctx context.Context, accountID, bookID, chapterID int, offset float64) error
}
