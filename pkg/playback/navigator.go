package playback

import (
	"context"

	"github.com/audiobookroom/audiobookroom/pkg/models"
)

// Navigator resolves neighbouring chapters by ordinal. Both lookups return a
// nil chapter without an error when there is no neighbour.
type Navigator struct {
	catalog Catalog
}

func NewNavigator(catalog Catalog) *Navigator {
	return &Navigator{catalog: catalog}
}

func (n *Navigator) Next(ctx context.Context, bookID, ordinal int) (*models.Chapter, error) {
	book, err := n.catalog.GetBookDetail(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if ordinal+1 >= book.ChapterCount {
		return nil, nil
	}
	return n.catalog.SearchChapterByOrdinal(ctx, bookID, ordinal+1)
}

func (n *Navigator) Previous(ctx context.Context, bookID, ordinal int) (*models.Chapter, error) {
	if ordinal <= 0 {
		return nil, nil
	}
	return n.catalog.SearchChapterByOrdinal(ctx, bookID, ordinal-1)
}
