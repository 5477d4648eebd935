package playback

import (
	"context"
	"math"
	"sync"

	"github.com/robinjoseph08/golib/logger"
)

// DefaultThreshold is how far, in seconds, the offset has to move within a
// chapter before the progress is written again.
const DefaultThreshold = 10.0

// Decision is the outcome of Tracker.Observe.
type Decision int

const (
	Skip Decision = iota
	Persist
)

func (d Decision) String() string {
	if d == Persist {
		return "persist"
	}
	return "skip"
}

// Dispatcher runs a progress write. The tracker never waits for it.
type Dispatcher func(fn func())

// GoDispatcher runs every write on its own goroutine.
func GoDispatcher(fn func()) {
	go fn()
}

type position struct {
	bookID    int
	chapterID int
	offset    float64
}

// Tracker throttles progress writes for one account. It is safe for
// concurrent use.
type Tracker struct {
	accountID int
	writer    ProgressWriter
	threshold float64
	dispatch  Dispatcher

	mu   sync.Mutex
	last *position
}

func NewTracker(accountID int, writer ProgressWriter, threshold float64, dispatch Dispatcher) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if dispatch == nil {
		dispatch = GoDispatcher
	}
	return &Tracker{
		accountID: accountID,
		writer:    writer,
		threshold: threshold,
		dispatch:  dispatch,
	}
}

// Observe records the current playback position and dispatches a write when
// it differs enough from the last persisted one. The last persisted position
// is replaced before the write is dispatched and is kept even if the write
// fails.
func (t *Tracker) Observe(ctx context.Context, bookID, chapterID int, offset float64) Decision {
	t.mu.Lock()
	if t.last != nil &&
		t.last.bookID == bookID &&
		t.last.chapterID == chapterID &&
		math.Abs(offset-t.last.offset) < t.threshold {
		t.mu.Unlock()
		return Skip
	}
	t.last = &position{bookID: bookID, chapterID: chapterID, offset: offset}
	t.mu.Unlock()

	// The write outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)
	t.dispatch(func() {
		err := t.writer.SetProgress(ctx, t.accountID, bookID, chapterID, offset)
		if err != nil {
			logger.FromContext(ctx).Err(err).Warn("failed to save progress", logger.Data{
				"account_id": t.accountID,
				"book_id":    bookID,
				"chapter_id": chapterID,
				"offset":     offset,
			})
		}
	})

	return Persist
}

// Reset forgets the last persisted position so the next observation is
// always written.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.last = nil
	t.mu.Unlock()
}
