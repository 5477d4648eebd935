package playback

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestController(catalog *fakeCatalog, clock *testClock) *Controller {
	return NewController(1, catalog, Options{Clock: clock.Now, Dispatcher: syncDispatcher})
}

// drive handles ev and resolves any fetch it triggers, the way Session does.
func drive(t *testing.T, c *Controller, ev Event) Snapshot {
	t.Helper()
	ctx := context.Background()

	fetch, err := c.Handle(ctx, ev)
	require.NoError(t, err)
	for fetch != nil {
		fetch, err = c.Handle(ctx, c.Fetch(ctx, *fetch))
		require.NoError(t, err)
	}
	return c.Snapshot()
}

func load(bookID, ordinal int, offset float64) Load {
	return Load{Props: AudioProps{BookID: bookID, ChapterID: chapterID(bookID, ordinal), InitOffset: offset}}
}

func TestController_LoadPlaysAtInitOffset(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	c := newTestController(catalog, newTestClock())

	fetch, err := c.Handle(context.Background(), load(1, 1, 5))
	require.NoError(t, err)
	require.NotNil(t, fetch)
	assert.Equal(t, uint64(1), fetch.Generation)
	assert.Equal(t, StateLoading, c.Snapshot().State)

	snap := drive(t, c, c.Fetch(context.Background(), *fetch))
	assert.Equal(t, StatePlaying, snap.State)
	assert.InDelta(t, 5.0, snap.Offset, 0.0001)
	require.NotNil(t, snap.Chapter)
	assert.Equal(t, 1, snap.Chapter.Position)
	require.Len(t, snap.Commands, 1)
	assert.Equal(t, CommandPlay, snap.Commands[0].Type)
	assert.InDelta(t, 5.0, *snap.Commands[0].Offset, 0.0001)
}

func TestController_EndedAdvancesToNextChapter(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	c := newTestController(catalog, newTestClock())
	drive(t, c, load(1, 1, 5))

	fetch, err := c.Handle(context.Background(), Ended{})
	require.NoError(t, err)
	require.NotNil(t, fetch)
	assert.Equal(t, chapterID(1, 2), fetch.Props.ChapterID)
	assert.InDelta(t, 0.0, fetch.Props.InitOffset, 0.0001)

	snap := c.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	require.NotNil(t, snap.Props)
	assert.Equal(t, chapterID(1, 2), snap.Props.ChapterID)
	assert.InDelta(t, 0.0, snap.Offset, 0.0001)
}

func TestController_EndedOnLastChapterIsEndOfBook(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	c := newTestController(catalog, newTestClock())

	snap := drive(t, c, load(1, 2, 0))
	drive(t, c, TimeUpdate{Generation: snap.Generation, Offset: 1})
	writes := catalog.writeCount()

	snap = drive(t, c, Ended{})
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, StatusEndOfBook, snap.Status)
	assert.Nil(t, snap.Props)
	assert.Empty(t, snap.Error)
	assert.Equal(t, writes, catalog.writeCount())
	for _, w := range catalog.writes {
		assert.NotEqual(t, chapterID(1, 3), w.chapterID)
	}
}

func TestController_StaleTimeUpdateIsDropped(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	c := newTestController(catalog, newTestClock())

	first := drive(t, c, load(1, 0, 0))
	second := drive(t, c, load(1, 1, 0))
	require.Greater(t, second.Generation, first.Generation)
	writes := catalog.writeCount()

	snap := drive(t, c, TimeUpdate{Generation: first.Generation, Offset: 300})
	assert.InDelta(t, 0.0, snap.Offset, 0.0001)
	assert.Equal(t, writes, catalog.writeCount())

	snap = drive(t, c, TimeUpdate{Generation: second.Generation, Offset: 300})
	assert.InDelta(t, 300.0, snap.Offset, 0.0001)
	assert.Equal(t, writes+1, catalog.writeCount())
	assert.Equal(t, chapterID(1, 1), catalog.lastWrite().chapterID)
}

func TestController_StaleLoadResultIsDropped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	c := newTestController(catalog, newTestClock())

	older, err := c.Handle(ctx, load(1, 0, 0))
	require.NoError(t, err)
	newer, err := c.Handle(ctx, load(1, 2, 7))
	require.NoError(t, err)

	_, err = c.Handle(ctx, c.Fetch(ctx, *older))
	require.NoError(t, err)
	assert.Equal(t, StateLoading, c.Snapshot().State)
	assert.Empty(t, c.Snapshot().Commands)

	_, err = c.Handle(ctx, c.Fetch(ctx, *newer))
	require.NoError(t, err)
	snap := c.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 2, snap.Chapter.Position)
	assert.InDelta(t, 7.0, snap.Offset, 0.0001)
}

func TestController_LoadFailure(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 2)
	catalog.addBook(2, 2)
	c := newTestController(catalog, newTestClock())

	snap := drive(t, c, Load{Props: AudioProps{BookID: 1, ChapterID: chapterID(2, 0)}})
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, StatusLoadFailed, snap.Status)
	assert.Contains(t, snap.Error, "doesn't belong")
	assert.Nil(t, snap.Props)

	snap = drive(t, c, Load{Props: AudioProps{BookID: 9, ChapterID: chapterID(1, 0)}})
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, "Book not found.", snap.Error)
}

func TestController_LoadValidation(t *testing.T) {
	t.Parallel()
	c := newTestController(newFakeCatalog(), newTestClock())

	_, err := c.Handle(context.Background(), Load{Props: AudioProps{BookID: 1}})
	require.Error(t, err)
	_, err = c.Handle(context.Background(), Load{Props: AudioProps{BookID: 1, ChapterID: 1, InitOffset: -1}})
	require.Error(t, err)
	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Equal(t, uint64(0), c.Snapshot().Generation)
}

func TestController_SkipPrevious(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	c := newTestController(catalog, newTestClock())

	before := drive(t, c, load(1, 0, 12))
	fetch, err := c.Handle(context.Background(), SkipPrevious{})
	require.NoError(t, err)
	assert.Nil(t, fetch)
	after := c.Snapshot()
	assert.Equal(t, StatePlaying, after.State)
	assert.Equal(t, before.Generation, after.Generation)
	assert.Empty(t, after.Status)

	drive(t, c, load(1, 2, 12))
	snap := drive(t, c, SkipPrevious{})
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 1, snap.Chapter.Position)
	assert.InDelta(t, 0.0, snap.Offset, 0.0001)
}

func TestController_SkipNextWhilePaused(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	c := newTestController(catalog, newTestClock())

	drive(t, c, load(1, 0, 0))
	drive(t, c, Pause{})
	snap := drive(t, c, SkipNext{})
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 1, snap.Chapter.Position)
}

func TestController_NavigationWhileLoadingUsesProps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addBook(1, 4)
	c := newTestController(catalog, newTestClock())

	drive(t, c, load(1, 0, 0))
	_, err := c.Handle(ctx, load(1, 2, 0))
	require.NoError(t, err)

	fetch, err := c.Handle(ctx, SkipNext{})
	require.NoError(t, err)
	require.NotNil(t, fetch)
	assert.Equal(t, chapterID(1, 3), fetch.Props.ChapterID)
}

func TestController_NavigationErrorGoesIdle(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	c := newTestController(catalog, newTestClock())
	drive(t, c, load(1, 0, 0))

	catalog.findErr = errBoom
	snap := drive(t, c, Ended{})
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, StatusNavigateFail, snap.Status)
	assert.Equal(t, "boom", snap.Error)
	assert.Nil(t, snap.Props)
}

func TestController_InvalidTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	c := newTestController(catalog, newTestClock())

	for _, ev := range []Event{Ended{}, SkipNext{}, SkipPrevious{}, Pause{}, Resume{}} {
		_, err := c.Handle(ctx, ev)
		var e *errcodes.Error
		require.ErrorAs(t, err, &e, "%T", ev)
		assert.Equal(t, http.StatusConflict, e.HTTPCode)
		assert.Equal(t, "invalid_state", e.Code)
	}

	drive(t, c, load(1, 0, 0))
	_, err := c.Handle(ctx, Resume{})
	require.Error(t, err)
	drive(t, c, Pause{})
	_, err = c.Handle(ctx, Pause{})
	require.Error(t, err)
	snap := drive(t, c, Resume{})
	assert.Equal(t, StatePlaying, snap.State)
}

func TestController_SleepCheckedOnBucketChange(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 1)
	clock := newTestClock()
	c := newTestController(catalog, clock)

	snap := drive(t, c, load(1, 0, 0))
	gen := snap.Generation
	drive(t, c, TimeUpdate{Generation: gen, Offset: 0.1})

	snap = drive(t, c, ArmSleep{Duration: 0})
	require.NotNil(t, snap.SleepDeadline)

	snap = drive(t, c, TimeUpdate{Generation: gen, Offset: 3.9})
	assert.Equal(t, StatePlaying, snap.State)
	assert.Empty(t, snap.Commands)

	snap = drive(t, c, TimeUpdate{Generation: gen, Offset: 4.0})
	assert.Equal(t, StatePaused, snap.State)
	assert.Equal(t, StatusSleepExpired, snap.Status)
	assert.Nil(t, snap.SleepDeadline)
	require.Len(t, snap.Commands, 1)
	assert.Equal(t, CommandPause, snap.Commands[0].Type)
	assert.Nil(t, snap.Commands[0].Offset)

	snap = drive(t, c, Resume{})
	assert.Equal(t, StatePlaying, snap.State)
	snap = drive(t, c, TimeUpdate{Generation: gen, Offset: 8.0})
	assert.Equal(t, StatePlaying, snap.State)
}

func TestController_SleepFollowsWallClock(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 1)
	clock := newTestClock()
	c := newTestController(catalog, clock)

	gen := drive(t, c, load(1, 0, 0)).Generation
	drive(t, c, ArmSleep{Duration: 10 * time.Minute})

	clock.Advance(9 * time.Minute)
	snap := drive(t, c, TimeUpdate{Generation: gen, Offset: 540})
	assert.Equal(t, StatePlaying, snap.State)

	clock.Advance(time.Minute)
	snap = drive(t, c, TimeUpdate{Generation: gen, Offset: 600})
	assert.Equal(t, StatePaused, snap.State)
}

func TestController_CancelSleep(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 1)
	c := newTestController(catalog, newTestClock())

	gen := drive(t, c, load(1, 0, 0)).Generation
	drive(t, c, ArmSleep{Duration: -time.Second})
	snap := drive(t, c, CancelSleep{})
	assert.Nil(t, snap.SleepDeadline)

	snap = drive(t, c, TimeUpdate{Generation: gen, Offset: 10})
	assert.Equal(t, StatePlaying, snap.State)
}

func TestController_SleepDoesNotOutliveBook(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 1)
	catalog.addBook(2, 2)
	clock := newTestClock()
	c := newTestController(catalog, clock)

	drive(t, c, load(1, 0, 0))
	drive(t, c, ArmSleep{Duration: time.Minute})
	snap := drive(t, c, Ended{})
	assert.Equal(t, StatusEndOfBook, snap.Status)
	assert.Nil(t, snap.SleepDeadline)

	clock.Advance(2 * time.Hour)
	gen := drive(t, c, load(2, 0, 0)).Generation
	snap = drive(t, c, TimeUpdate{Generation: gen, Offset: 0.5})
	assert.Equal(t, StatePlaying, snap.State)
	assert.Empty(t, snap.Status)
}

func TestController_LoadFailureCancelsSleep(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 2)
	catalog.addBook(2, 2)
	c := newTestController(catalog, newTestClock())

	drive(t, c, load(1, 0, 0))
	drive(t, c, ArmSleep{Duration: time.Minute})
	snap := drive(t, c, Load{Props: AudioProps{BookID: 1, ChapterID: chapterID(2, 0)}})
	assert.Equal(t, StatusLoadFailed, snap.Status)
	assert.Nil(t, snap.SleepDeadline)
}

func TestController_SleepArmedBeforeLoad(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 1)
	clock := newTestClock()
	c := newTestController(catalog, clock)

	drive(t, c, ArmSleep{Duration: time.Minute})
	snap := drive(t, c, load(1, 0, 0))
	require.NotNil(t, snap.SleepDeadline)

	clock.Advance(time.Minute)
	snap = drive(t, c, TimeUpdate{Generation: snap.Generation, Offset: 0.5})
	assert.Equal(t, StatePaused, snap.State)
	assert.Equal(t, StatusSleepExpired, snap.Status)
}

func TestController_Stop(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 2)
	c := newTestController(catalog, newTestClock())

	gen := drive(t, c, load(1, 0, 0)).Generation
	drive(t, c, TimeUpdate{Generation: gen, Offset: 1})
	drive(t, c, ArmSleep{Duration: time.Hour})
	writes := catalog.writeCount()

	snap := drive(t, c, Stop{})
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Props)
	assert.Nil(t, snap.SleepDeadline)

	// The tracker forgot its last position, so the same offset is written again.
	gen = drive(t, c, load(1, 0, 1)).Generation
	drive(t, c, TimeUpdate{Generation: gen, Offset: 1})
	assert.Equal(t, writes+1, catalog.writeCount())
}

func TestController_TimeUpdatesThrottleWrites(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	catalog.addBook(1, 2)
	c := newTestController(catalog, newTestClock())

	gen := drive(t, c, load(1, 0, 0)).Generation
	for offset := 0.0; offset <= 25.0; offset += 0.25 {
		drive(t, c, TimeUpdate{Generation: gen, Offset: offset})
	}
	// 0, 10 and 20
	assert.Equal(t, 3, catalog.writeCount())
	assert.Equal(t, progressWrite{accountID: 1, bookID: 1, chapterID: chapterID(1, 0), offset: 20}, catalog.lastWrite())
}
