package chapters

import "github.com/audiobookroom/audiobookroom/pkg/pagination"

type ListChaptersQuery struct {
	pagination.Query
	BookID int `query:"book_id" json:"book_id" validate:"required"`
}

type SearchChapterQuery struct {
	BookID   int  `query:"book_id" json:"book_id" validate:"required"`
	Position *int `query:"position" json:"position" validate:"required,min=0"`
}

type BatchChaptersQuery struct {
	IDs []int `query:"ids" json:"ids" validate:"required,min=1,max=100"`
}
