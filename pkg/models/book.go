package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const (
	//tygo:emit export type MediaType = typeof MediaTypeMP3 | typeof MediaTypeM4A;
	MediaTypeMP3 = "mp3"
	MediaTypeM4A = "m4a"
)

// MediaTypeForExtension maps a file extension (with or without the leading
// dot) to a media type. The second return value is false for anything that
// isn't a supported audio container.
func MediaTypeForExtension(ext string) (string, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case MediaTypeMP3:
		return MediaTypeMP3, true
	case MediaTypeM4A:
		return MediaTypeM4A, true
	}
	return "", false
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b" tstype:"-"`

	ID            int       `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	AuthorID      int       `bun:",nullzero" json:"author_id"`
	Author        *Author   `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty" tstype:"Author"`
	Title         string    `bun:",nullzero" json:"title"`
	ChapterCount  int       `bun:",notnull" json:"chapter_count"`
	TotalDuration *float64  `json:"total_duration"`
	// Folder is relative to the library directory, e.g. "Author/Title".
	Folder    string `bun:",nullzero" json:"folder"`
	MediaType string `bun:",nullzero" json:"media_type" tstype:"MediaType"`
}

// AbsoluteFolder resolves the book folder inside libraryDir.
func (b *Book) AbsoluteFolder(libraryDir string) string {
	return filepath.Join(libraryDir, filepath.FromSlash(b.Folder))
}
