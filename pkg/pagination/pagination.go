// Package pagination converts page-based list queries into limit/offset
// queries and wraps the results in a page envelope.
package pagination

// Query is embedded in list query structs so every list endpoint accepts the
// same parameters.
type Query struct {
	Page    int `query:"page" json:"page,omitempty" validate:"min=0"`
	MaxItem int `query:"max_item" json:"max_item,omitempty" default:"24" validate:"min=1,max=100"`
}

func (q Query) Limit() int {
	return q.MaxItem
}

func (q Query) Offset() int {
	return q.Page * q.MaxItem
}

type Page[T any] struct {
	Page          int `json:"page"`
	MaxItem       int `json:"max_item"`
	NumberOfItems int `json:"number_of_items"`
	NumberOfPages int `json:"number_of_pages"`
	Items         []T `json:"items"`
}

// New builds a page from the items of one page and the total number of
// matching rows.
func New[T any](q Query, items []T, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if q.MaxItem > 0 {
		pages = (total + q.MaxItem - 1) / q.MaxItem
	}
	return &Page[T]{
		Page:          q.Page,
		MaxItem:       q.MaxItem,
		NumberOfItems: total,
		NumberOfPages: pages,
		Items:         items,
	}
}
