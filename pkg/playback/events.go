package playback

import (
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/models"
)

// Event is a message handled by Controller.Handle.
type Event interface {
	event()
}

// AudioProps identifies what to play and where to start.
type AudioProps struct {
	BookID     int     `json:"book_id"`
	ChapterID  int     `json:"chapter_id"`
	InitOffset float64 `json:"init_offset"`
}

// Load starts loading props. Any pending fetch or time update from an earlier
// load becomes stale.
type Load struct {
	Props AudioProps
}

// Loaded is the successful result of a Fetch.
type Loaded struct {
	Generation uint64
	Book       *models.Book
	Chapter    *models.Chapter
}

// LoadFailed is the failed result of a Fetch.
type LoadFailed struct {
	Generation uint64
	Err        error
}

// TimeUpdate reports the playback offset, in seconds, of the chapter loaded
// for Generation.
type TimeUpdate struct {
	Generation uint64
	Offset     float64
}

// Ended reports that the current chapter played to its end.
type Ended struct{}

type SkipNext struct{}

type SkipPrevious struct{}

// Pause and Resume report that the player paused or resumed on its own.
type Pause struct{}

type Resume struct{}

type ArmSleep struct {
	Duration time.Duration
}

type CancelSleep struct{}

type Stop struct{}

func (Load) event()         {}
func (Loaded) event()       {}
func (LoadFailed) event()   {}
func (TimeUpdate) event()   {}
func (Ended) event()        {}
func (SkipNext) event()     {}
func (SkipPrevious) event() {}
func (Pause) event()        {}
func (Resume) event()       {}
func (ArmSleep) event()     {}
func (CancelSleep) event()  {}
func (Stop) event()         {}

// Fetch is the metadata load requested by a Load. Its result is fed back to
// the controller as Loaded or LoadFailed.
type Fetch struct {
	Generation uint64
	Props      AudioProps
}

const (
	CommandPlay  = "play"
	CommandPause = "pause"
)

// Command is an instruction for the audio player.
type Command struct {
	Type   string   `json:"type"`
	Offset *float64 `json:"offset,omitempty"`
}

func playCommand(offset float64) Command {
	return Command{Type: CommandPlay, Offset: &offset}
}

func pauseCommand() Command {
	return Command{Type: CommandPause}
}
