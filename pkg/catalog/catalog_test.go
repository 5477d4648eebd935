package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/audiobookroom/audiobookroom/pkg/migrations"
	"github.com/audiobookroom/audiobookroom/pkg/playback"
	"github.com/audiobookroom/audiobookroom/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var _ playback.Catalog = (*Catalog)(nil)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestCatalog_Progress(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	c := New(db)

	book, chapters, err := testutils.SeedBook(ctx, db, testutils.SeedBookOptions{AuthorName: "A", Title: "B", ChapterCount: 2})
	require.NoError(t, err)

	p, err := c.GetProgress(ctx, 1, book.ID)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, c.SetProgress(ctx, 1, book.ID, chapters[1].ID, 33))
	p, err = c.GetProgress(ctx, 1, book.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, chapters[1].ID, p.ChapterID)
	assert.InDelta(t, 33.0, p.Offset, 0.0001)
}

func TestCatalog_Lookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	c := New(db)

	book, chapters, err := testutils.SeedBook(ctx, db, testutils.SeedBookOptions{AuthorName: "A", Title: "B", ChapterCount: 3})
	require.NoError(t, err)

	got, err := c.GetBookDetail(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ChapterCount)

	ch, err := c.GetChapterDetail(ctx, chapters[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Position)

	ch, err = c.SearchChapterByOrdinal(ctx, book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, chapters[1].ID, ch.ID)
}

// A session driven against the real store resumes where it left off.
func TestCatalog_PlaybackResume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	c := New(db)

	book, _, err := testutils.SeedBook(ctx, db, testutils.SeedBookOptions{AuthorName: "A", Title: "B", ChapterCount: 3})
	require.NoError(t, err)

	sync := func(fn func()) { fn() }
	m := playback.NewManager(c, playback.Options{Dispatcher: sync})
	defer m.Shutdown()

	snap, err := m.Resume(ctx, 9, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Chapter.Position)

	s, ok := m.Get(9)
	require.True(t, ok)
	snap, err = s.Send(ctx, playback.SkipNext{})
	require.NoError(t, err)
	_, err = s.Send(ctx, playback.TimeUpdate{Generation: snap.Generation, Offset: 42})
	require.NoError(t, err)

	m.Close(9)
	snap, err = m.Resume(ctx, 9, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Chapter.Position)
	assert.InDelta(t, 42.0, snap.Offset, 0.0001)
}
