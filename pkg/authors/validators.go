package authors

import "github.com/audiobookroom/audiobookroom/pkg/pagination"

type ListAuthorsQuery struct {
	pagination.Query
}

type ListAuthorBooksQuery struct {
	pagination.Query
}
