package player

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/audiobookroom/audiobookroom/pkg/binder"
	"github.com/audiobookroom/audiobookroom/pkg/catalog"
	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/migrations"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/audiobookroom/audiobookroom/pkg/playback"
	"github.com/audiobookroom/audiobookroom/pkg/testutils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

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

type testEnv struct {
	h        *handler
	db       *bun.DB
	book     *models.Book
	chapters []*models.Chapter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	book, chapters, err := testutils.SeedBook(context.Background(), db, testutils.SeedBookOptions{
		AuthorName:      "Author",
		Title:           "Title",
		ChapterCount:    2,
		ChapterDuration: 300,
	})
	require.NoError(t, err)

	m := playback.NewManager(catalog.New(db), playback.Options{Dispatcher: func(fn func()) { fn() }})
	t.Cleanup(m.Shutdown)

	return &testEnv{h: &handler{manager: m}, db: db, book: book, chapters: chapters}
}

func newTestContext(t *testing.T, userID int, payload, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	c.Set("user_id", userID)
	return c, rr
}

func decodeSnapshot(t *testing.T, rr *httptest.ResponseRecorder) playback.Snapshot {
	t.Helper()
	var snap playback.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	return snap
}

func TestHandler_LoadAndTimeUpdate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body := fmt.Sprintf(`{"book_id":%d,"chapter_id":%d,"offset":12.5}`, env.book.ID, env.chapters[1].ID)
	c, rr := newTestContext(t, 1, body, http.MethodPost, "/player/load")
	require.NoError(t, env.h.load(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	snap := decodeSnapshot(t, rr)
	assert.Equal(t, playback.StatePlaying, snap.State)
	require.Len(t, snap.Commands, 1)
	assert.Equal(t, playback.CommandPlay, snap.Commands[0].Type)

	body = fmt.Sprintf(`{"generation":%d,"offset":30}`, snap.Generation)
	c, rr = newTestContext(t, 1, body, http.MethodPost, "/player/time")
	require.NoError(t, env.h.timeUpdate(c))
	assert.InDelta(t, 30.0, decodeSnapshot(t, rr).Offset, 0.0001)

	var p models.Progress
	err := env.db.NewSelect().Model(&p).Where("pr.user_id = 1").Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, env.chapters[1].ID, p.ChapterID)
	assert.InDelta(t, 30.0, p.Offset, 0.0001)
}

func TestHandler_EventWithoutSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	c, _ := newTestContext(t, 1, "", http.MethodPost, "/player/next")
	err := env.h.next(c)
	var e *errcodes.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusConflict, e.HTTPCode)

	c, rr := newTestContext(t, 1, "", http.MethodGet, "/player")
	require.NoError(t, env.h.retrieve(c))
	assert.Equal(t, playback.StateIdle, decodeSnapshot(t, rr).State)
}

func TestHandler_Sleep(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	c, _ := newTestContext(t, 1, `{"duration":"soon"}`, http.MethodPost, "/player/sleep")
	require.Error(t, env.h.armSleep(c))

	c, rr := newTestContext(t, 1, `{"duration":"15m"}`, http.MethodPost, "/player/sleep")
	require.NoError(t, env.h.armSleep(c))
	assert.NotNil(t, decodeSnapshot(t, rr).SleepDeadline)

	c, rr = newTestContext(t, 1, "", http.MethodDelete, "/player/sleep")
	require.NoError(t, env.h.cancelSleep(c))
	assert.Nil(t, decodeSnapshot(t, rr).SleepDeadline)
}

func TestHandler_ResumeAndStop(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	c, rr := newTestContext(t, 2, fmt.Sprintf(`{"book_id":%d}`, env.book.ID), http.MethodPost, "/player/resume")
	require.NoError(t, env.h.resume(c))
	snap := decodeSnapshot(t, rr)
	assert.Equal(t, playback.StatePlaying, snap.State)
	assert.Equal(t, env.chapters[0].ID, snap.Chapter.ID)

	c, rr = newTestContext(t, 2, "", http.MethodPost, "/player/ended")
	require.NoError(t, env.h.ended(c))
	assert.Equal(t, env.chapters[1].ID, decodeSnapshot(t, rr).Chapter.ID)

	c, rr = newTestContext(t, 2, "", http.MethodPost, "/player/ended")
	require.NoError(t, env.h.ended(c))
	snap = decodeSnapshot(t, rr)
	assert.Equal(t, playback.StateIdle, snap.State)
	assert.Equal(t, playback.StatusEndOfBook, snap.Status)

	c, rr = newTestContext(t, 2, "", http.MethodDelete, "/player")
	require.NoError(t, env.h.stop(c))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	_, ok := env.h.manager.Get(2)
	assert.False(t, ok)
}
