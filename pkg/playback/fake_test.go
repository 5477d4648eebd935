package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/pkg/errors"
)

type progressWrite struct {
	accountID int
	bookID    int
	chapterID int
	offset    float64
}

// fakeCatalog is an in-memory Catalog. Chapter ids are bookID*100+ordinal.
type fakeCatalog struct {
	mu       sync.Mutex
	books    map[int]*models.Book
	chapters map[int]*models.Chapter
	progress map[[2]int]*models.Progress
	writes   []progressWrite
	writeErr error
	findErr  error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		books:    map[int]*models.Book{},
		chapters: map[int]*models.Chapter{},
		progress: map[[2]int]*models.Progress{},
	}
}

func chapterID(bookID, ordinal int) int {
	return bookID*100 + ordinal
}

func (f *fakeCatalog) addBook(bookID, chapterCount int) *models.Book {
	book := &models.Book{ID: bookID, Title: fmt.Sprintf("Book %d", bookID), ChapterCount: chapterCount}
	f.books[bookID] = book
	for i := 0; i < chapterCount; i++ {
		id := chapterID(bookID, i)
		f.chapters[id] = &models.Chapter{ID: id, BookID: bookID, Position: i, Name: fmt.Sprintf("%04d", i+1)}
	}
	return book
}

func (f *fakeCatalog) GetBookDetail(_ context.Context, bookID int) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	book, ok := f.books[bookID]
	if !ok {
		return nil, errcodes.NotFound("Book")
	}
	return book, nil
}

func (f *fakeCatalog) GetChapterDetail(_ context.Context, id int) (*models.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.chapters[id]
	if !ok {
		return nil, errcodes.NotFound("Chapter")
	}
	return ch, nil
}

func (f *fakeCatalog) SearchChapterByOrdinal(_ context.Context, bookID, ordinal int) (*models.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	ch, ok := f.chapters[chapterID(bookID, ordinal)]
	if !ok {
		return nil, errcodes.NotFound("Chapter")
	}
	return ch, nil
}

func (f *fakeCatalog) GetProgress(_ context.Context, accountID, bookID int) (*models.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress[[2]int{accountID, bookID}], nil
}

func (f *fakeCatalog) SetProgress(_ context.Context, accountID, bookID, chapterID int, offset float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, progressWrite{accountID, bookID, chapterID, offset})
	if f.writeErr != nil {
		return f.writeErr
	}
	f.progress[[2]int{accountID, bookID}] = &models.Progress{
		UserID:    accountID,
		BookID:    bookID,
		ChapterID: chapterID,
		Offset:    offset,
	}
	return nil
}

func (f *fakeCatalog) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeCatalog) lastWrite() progressWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[len(f.writes)-1]
}

var errBoom = errors.New("boom")

// syncDispatcher runs writes inline so tests can assert on them right away.
func syncDispatcher(fn func()) {
	fn()
}
