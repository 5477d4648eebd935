// Package playback is the server-side audio player: a state machine per
// account that tracks progress, moves between chapters and runs the sleep
// timer. Clients report what the audio element does and apply the commands
// returned in each snapshot.
package playback

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

const (
	StatusEndOfBook    = "End of book"
	StatusSleepExpired = "Sleep timer expired"
	StatusLoadFailed   = "Failed to load chapter"
	StatusNavigateFail = "Failed to find chapter"
)

// DefaultSleepCheckInterval is the width, in whole playback seconds, of the
// buckets at whose boundaries the sleep timer is checked.
const DefaultSleepCheckInterval = 4

// Snapshot is a read-only view of a controller.
type Snapshot struct {
	State         State           `json:"state"`
	Generation    uint64          `json:"generation"`
	Props         *AudioProps     `json:"props"`
	Book          *models.Book    `json:"book"`
	Chapter       *models.Chapter `json:"chapter"`
	Offset        float64         `json:"offset"`
	Status        string          `json:"status,omitempty"`
	Error         string          `json:"error,omitempty"`
	SleepDeadline *time.Time      `json:"sleep_deadline"`
	Commands      []Command       `json:"commands"`
}

// Controller is the playback state machine of one account. It isn't safe for
// concurrent use: Session serializes the events it handles.
type Controller struct {
	accountID int
	catalog   Catalog
	tracker   *Tracker
	navigator *Navigator
	sleep     *SleepTimer
	clock     Clock
	interval  int

	state      State
	generation uint64
	props      *AudioProps
	book       *models.Book
	chapter    *models.Chapter
	offset     float64
	bucket     int
	status     string
	err        string
	commands   []Command
}

func NewController(accountID int, catalog Catalog, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		accountID: accountID,
		catalog:   catalog,
		tracker:   NewTracker(accountID, catalog, opts.Threshold, opts.Dispatcher),
		navigator: NewNavigator(catalog),
		sleep:     NewSleepTimer(opts.Clock),
		clock:     opts.Clock,
		interval:  opts.SleepCheckInterval,
		state:     StateIdle,
		bucket:    -1,
	}
}

// Handle applies one event. When it returns a Fetch, the caller must run
// Controller.Fetch and hand the resulting event back to Handle.
func (c *Controller) Handle(ctx context.Context, ev Event) (*Fetch, error) {
	c.commands = nil

	switch ev := ev.(type) {
	case Load:
		return c.load(ctx, ev.Props)
	case Loaded:
		c.loaded(ctx, ev)
	case LoadFailed:
		c.loadFailed(ctx, ev)
	case TimeUpdate:
		c.timeUpdate(ctx, ev)
	case Ended:
		if c.state != StatePlaying && c.state != StatePaused {
			return nil, errcodes.InvalidState(fmt.Sprintf("Can't end a chapter while %s", c.state))
		}
		return c.next(ctx)
	case SkipNext:
		if c.state == StateIdle {
			return nil, errcodes.InvalidState("Nothing is loaded")
		}
		return c.next(ctx)
	case SkipPrevious:
		if c.state == StateIdle {
			return nil, errcodes.InvalidState("Nothing is loaded")
		}
		return c.previous(ctx)
	case Pause:
		if c.state != StatePlaying {
			return nil, errcodes.InvalidState(fmt.Sprintf("Can't pause while %s", c.state))
		}
		c.state = StatePaused
	case Resume:
		if c.state != StatePaused {
			return nil, errcodes.InvalidState(fmt.Sprintf("Can't resume while %s", c.state))
		}
		c.state = StatePlaying
		c.status = ""
	case ArmSleep:
		c.sleep.Arm(ev.Duration)
	case CancelSleep:
		c.sleep.Cancel()
	case Stop:
		c.stop()
	default:
		return nil, errors.Errorf("unknown playback event %T", ev)
	}

	return nil, nil
}

// Fetch loads the book and chapter named by f. It only reads from the
// catalog, so it may run outside the goroutine that owns the controller.
func (c *Controller) Fetch(ctx context.Context, f Fetch) Event {
	book, err := c.catalog.GetBookDetail(ctx, f.Props.BookID)
	if err != nil {
		return LoadFailed{Generation: f.Generation, Err: err}
	}
	chapter, err := c.catalog.GetChapterDetail(ctx, f.Props.ChapterID)
	if err != nil {
		return LoadFailed{Generation: f.Generation, Err: err}
	}
	if chapter.BookID != book.ID {
		return LoadFailed{
			Generation: f.Generation,
			Err:        errors.Errorf("chapter %d doesn't belong to book %d", chapter.ID, book.ID),
		}
	}
	return Loaded{Generation: f.Generation, Book: book, Chapter: chapter}
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:      c.state,
		Generation: c.generation,
		Book:       c.book,
		Chapter:    c.chapter,
		Offset:     c.offset,
		Status:     c.status,
		Error:      c.err,
		Commands:   append([]Command{}, c.commands...),
	}
	if c.props != nil {
		props := *c.props
		s.Props = &props
	}
	if deadline, ok := c.sleep.Deadline(); ok {
		s.SleepDeadline = &deadline
	}
	return s
}

func (c *Controller) load(ctx context.Context, props AudioProps) (*Fetch, error) {
	if props.BookID <= 0 || props.ChapterID <= 0 {
		return nil, errcodes.ValidationError("A book and a chapter are required")
	}
	if props.InitOffset < 0 || math.IsNaN(props.InitOffset) || math.IsInf(props.InitOffset, 0) {
		return nil, errcodes.ValidationError("The start offset must be a non-negative number of seconds")
	}

	c.generation++
	c.state = StateLoading
	c.props = &props
	c.offset = props.InitOffset
	c.bucket = -1
	c.status = ""
	c.err = ""

	logger.FromContext(ctx).Debug("loading chapter", logger.Data{
		"account_id": c.accountID,
		"book_id":    props.BookID,
		"chapter_id": props.ChapterID,
		"generation": c.generation,
	})

	return &Fetch{Generation: c.generation, Props: props}, nil
}

func (c *Controller) loaded(ctx context.Context, ev Loaded) {
	if c.state != StateLoading || ev.Generation != c.generation {
		logger.FromContext(ctx).Debug("dropping stale load result", logger.Data{
			"generation":         ev.Generation,
			"current_generation": c.generation,
		})
		return
	}
	c.state = StatePlaying
	c.book = ev.Book
	c.chapter = ev.Chapter
	c.offset = c.props.InitOffset
	c.commands = append(c.commands, playCommand(c.props.InitOffset))
}

func (c *Controller) loadFailed(ctx context.Context, ev LoadFailed) {
	if c.state != StateLoading || ev.Generation != c.generation {
		return
	}
	logger.FromContext(ctx).Err(ev.Err).Warn("failed to load chapter", logger.Data{
		"account_id": c.accountID,
		"book_id":    c.props.BookID,
		"chapter_id": c.props.ChapterID,
	})
	c.fail(StatusLoadFailed, ev.Err)
}

func (c *Controller) timeUpdate(ctx context.Context, ev TimeUpdate) {
	if c.state != StatePlaying || ev.Generation != c.generation {
		return
	}
	if ev.Offset < 0 || math.IsNaN(ev.Offset) || math.IsInf(ev.Offset, 0) {
		return
	}
	c.offset = ev.Offset

	bucket := int(math.Floor(ev.Offset)) / c.interval
	if bucket != c.bucket {
		c.bucket = bucket
		if c.sleep.Check(c.clock()) == Expired {
			c.state = StatePaused
			c.status = StatusSleepExpired
			c.commands = append(c.commands, pauseCommand())
		}
	}

	c.tracker.Observe(ctx, c.props.BookID, c.props.ChapterID, c.offset)
}

func (c *Controller) next(ctx context.Context) (*Fetch, error) {
	ordinal, err := c.currentOrdinal(ctx)
	if err != nil {
		c.fail(StatusNavigateFail, err)
		return nil, nil
	}
	chapter, err := c.navigator.Next(ctx, c.props.BookID, ordinal)
	if err != nil {
		c.fail(StatusNavigateFail, err)
		return nil, nil
	}
	if chapter == nil {
		c.clear()
		c.status = StatusEndOfBook
		return nil, nil
	}
	return c.load(ctx, AudioProps{BookID: chapter.BookID, ChapterID: chapter.ID})
}

func (c *Controller) previous(ctx context.Context) (*Fetch, error) {
	ordinal, err := c.currentOrdinal(ctx)
	if err != nil {
		c.fail(StatusNavigateFail, err)
		return nil, nil
	}
	chapter, err := c.navigator.Previous(ctx, c.props.BookID, ordinal)
	if err != nil {
		c.fail(StatusNavigateFail, err)
		return nil, nil
	}
	if chapter == nil {
		return nil, nil
	}
	return c.load(ctx, AudioProps{BookID: chapter.BookID, ChapterID: chapter.ID})
}

// currentOrdinal returns the position of the chapter in the current props.
// While loading, the chapter of the previous load may be stale.
func (c *Controller) currentOrdinal(ctx context.Context) (int, error) {
	if c.chapter != nil && c.chapter.ID == c.props.ChapterID {
		return c.chapter.Position, nil
	}
	chapter, err := c.catalog.GetChapterDetail(ctx, c.props.ChapterID)
	if err != nil {
		return 0, err
	}
	return chapter.Position, nil
}

func (c *Controller) fail(status string, err error) {
	c.clear()
	c.status = status
	c.err = err.Error()
}

func (c *Controller) clear() {
	c.state = StateIdle
	c.props = nil
	c.book = nil
	c.chapter = nil
	c.offset = 0
	c.bucket = -1
	c.status = ""
	c.err = ""
	c.sleep.Cancel()
	c.tracker.Reset()
}

func (c *Controller) stop() {
	c.clear()
}
