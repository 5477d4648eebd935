package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Progress is the resume point of one user in one book. There is exactly one
// row per (user, book).
type Progress struct {
	bun.BaseModel `bun:"table:progress,alias:pr" tstype:"-"`

	UserID    int       `bun:",pk" json:"user_id"`
	BookID    int       `bun:",pk" json:"book_id"`
	ChapterID int       `bun:",notnull" json:"chapter_id"`
	Offset    float64   `bun:"offset_seconds,notnull" json:"offset"`
	UpdatedAt time.Time `json:"updated_at"`

	Book    *Book    `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty" tstype:"Book"`
	Chapter *Chapter `bun:"rel:belongs-to,join:chapter_id=id" json:"chapter,omitempty" tstype:"Chapter"`
}
