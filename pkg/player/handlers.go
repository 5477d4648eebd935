package player

import (
	"net/http"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/auth"
	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/playback"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	manager *playback.Manager
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	s, ok := h.manager.Get(userID)
	if !ok {
		return errors.WithStack(c.JSON(http.StatusOK, playback.Snapshot{
			State:    playback.StateIdle,
			Commands: []playback.Command{},
		}))
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return sessionError(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, snap))
}

func (h *handler) load(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoadPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	snap, err := h.manager.GetOrOpen(userID).Send(ctx, playback.Load{Props: playback.AudioProps{
		BookID:     params.BookID,
		ChapterID:  params.ChapterID,
		InitOffset: params.Offset,
	}})
	if err != nil {
		return sessionError(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, snap))
}

func (h *handler) resume(c echo.Context) error {
	ctx := c.Request().Context()

	params := ResumePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	snap, err := h.manager.Resume(ctx, userID, params.BookID)
	if err != nil {
		return sessionError(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, snap))
}

func (h *handler) timeUpdate(c echo.Context) error {
	params := TimePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	return h.send(c, playback.TimeUpdate{Generation: params.Generation, Offset: params.Offset})
}

func (h *handler) ended(c echo.Context) error {
	return h.send(c, playback.Ended{})
}

func (h *handler) next(c echo.Context) error {
	return h.send(c, playback.SkipNext{})
}

func (h *handler) previous(c echo.Context) error {
	return h.send(c, playback.SkipPrevious{})
}

func (h *handler) pause(c echo.Context) error {
	return h.send(c, playback.Pause{})
}

func (h *handler) play(c echo.Context) error {
	return h.send(c, playback.Resume{})
}

func (h *handler) armSleep(c echo.Context) error {
	ctx := c.Request().Context()

	params := SleepPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	// Already checked by the duration validator.
	d, _ := time.ParseDuration(params.Duration)

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	snap, err := h.manager.GetOrOpen(userID).Send(ctx, playback.ArmSleep{Duration: d})
	if err != nil {
		return sessionError(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, snap))
}

func (h *handler) cancelSleep(c echo.Context) error {
	return h.send(c, playback.CancelSleep{})
}

// stop returns the player to idle and releases the session.
func (h *handler) stop(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	s, ok := h.manager.Get(userID)
	if !ok {
		return errors.WithStack(c.NoContent(http.StatusNoContent))
	}
	if _, err := s.Send(ctx, playback.Stop{}); err != nil {
		return sessionError(err)
	}
	h.manager.CloseSession(s)

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// send delivers ev to the caller's existing session.
func (h *handler) send(c echo.Context, ev playback.Event) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	s, ok := h.manager.Get(userID)
	if !ok {
		return errcodes.InvalidState("Nothing is loaded")
	}

	snap, err := s.Send(ctx, ev)
	if err != nil {
		return sessionError(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, snap))
}

func currentUserID(c echo.Context) (int, error) {
	userID, ok := auth.GetUserIDFromContext(c)
	if !ok {
		return 0, errcodes.Unauthorized("Not logged in")
	}
	return userID, nil
}

func sessionError(err error) error {
	if errors.Is(err, playback.ErrSessionClosed) {
		return errcodes.InvalidState("The player session was closed")
	}
	return errors.WithStack(err)
}
