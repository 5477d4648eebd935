package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a" tstype:"-"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `bun:",nullzero" json:"name"`
	Avatar      string    `bun:",notnull" json:"avatar"`
	Description string    `bun:",notnull" json:"description"`

	Books []*Book `bun:"rel:has-many,join:id=author_id" json:"books,omitempty"`
}
