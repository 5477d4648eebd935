package books

import "github.com/audiobookroom/audiobookroom/pkg/pagination"

type ListBooksQuery struct {
	pagination.Query
	AuthorID *int `query:"author_id" json:"author_id,omitempty"`
}

// DetailQuery pages through the chapters of the book detail.
type DetailQuery struct {
	pagination.Query
}

type ImportBookPayload struct {
	AuthorName string `json:"author_name" mod:"trim" validate:"required,max=300"`
	BookTitle  string `json:"book_title" mod:"trim" validate:"required,max=300"`
	SourceDir  string `json:"source_dir" mod:"trim" validate:"required"`
}
