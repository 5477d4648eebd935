package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Chapter struct {
	bun.BaseModel `bun:"table:chapters,alias:ch" tstype:"-"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	BookID    int       `bun:",notnull" json:"book_id"`
	// Position is the 0-based ordinal of the chapter within its book. For a
	// given book the positions are dense: 0..ChapterCount-1.
	Position int    `bun:",notnull" json:"position"`
	Name     string `bun:",notnull" json:"name"`
	// Path is relative to the library directory and is what /fetchbook serves.
	Path     string   `bun:",notnull" json:"path"`
	Duration *float64 `json:"duration"`

	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"-"`
}
