package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Observe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	tracker := NewTracker(3, catalog, DefaultThreshold, syncDispatcher)

	assert.Equal(t, Persist, tracker.Observe(ctx, 1, 7, 12.0))
	assert.Equal(t, Skip, tracker.Observe(ctx, 1, 7, 12.5))
	assert.Equal(t, Persist, tracker.Observe(ctx, 1, 7, 23.0))

	require.Equal(t, 2, catalog.writeCount())
	assert.Equal(t, progressWrite{accountID: 3, bookID: 1, chapterID: 7, offset: 23.0}, catalog.lastWrite())
}

func TestTracker_RunWithinThreshold(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	tracker := NewTracker(1, catalog, DefaultThreshold, syncDispatcher)

	persisted := 0
	for offset := 30.0; offset < 39.9; offset += 0.25 {
		if tracker.Observe(ctx, 1, 1, offset) == Persist {
			persisted++
		}
	}
	assert.Equal(t, 1, persisted)
	assert.Equal(t, 1, catalog.writeCount())
}

func TestTracker_LargeDeltaPersistsInBothDirections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tracker := NewTracker(1, newFakeCatalog(), DefaultThreshold, syncDispatcher)

	tracker.Observe(ctx, 1, 1, 100)
	assert.Equal(t, Persist, tracker.Observe(ctx, 1, 1, 110))
	assert.Equal(t, Persist, tracker.Observe(ctx, 1, 1, 100))
	assert.Equal(t, Skip, tracker.Observe(ctx, 1, 1, 90.5))
	assert.Equal(t, Persist, tracker.Observe(ctx, 1, 1, 90))
}

func TestTracker_ChapterChangePersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tracker := NewTracker(1, newFakeCatalog(), DefaultThreshold, syncDispatcher)

	tracker.Observe(ctx, 1, 1, 50)
	assert.Equal(t, Persist, tracker.Observe(ctx, 1, 2, 50))
	assert.Equal(t, Persist, tracker.Observe(ctx, 2, 2, 50))
}

func TestTracker_FailedWriteKeepsPosition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.writeErr = errBoom
	tracker := NewTracker(1, catalog, DefaultThreshold, syncDispatcher)

	assert.Equal(t, Persist, tracker.Observe(ctx, 1, 1, 0))
	assert.Equal(t, Skip, tracker.Observe(ctx, 1, 1, 5))
	assert.Equal(t, 1, catalog.writeCount())
}

func TestTracker_Reset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tracker := NewTracker(1, newFakeCatalog(), DefaultThreshold, syncDispatcher)

	tracker.Observe(ctx, 1, 1, 0)
	tracker.Reset()
	assert.Equal(t, Persist, tracker.Observe(ctx, 1, 1, 1))
}

func TestTracker_CustomThreshold(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tracker := NewTracker(1, newFakeCatalog(), 30, syncDispatcher)

	tracker.Observe(ctx, 1, 1, 0)
	assert.Equal(t, Skip, tracker.Observe(ctx, 1, 1, 29.9))
	assert.Equal(t, Persist, tracker.Observe(ctx, 1, 1, 30))
}

func TestTracker_DefaultDispatcherWritesAsync(t *testing.T) {
	t.Parallel()
	catalog := newFakeCatalog()
	tracker := NewTracker(1, catalog, 0, nil)

	assert.Equal(t, Persist, tracker.Observe(context.Background(), 1, 1, 0))
	assert.Eventually(t, func() bool { return catalog.writeCount() == 1 }, time.Second, 5*time.Millisecond)
}
