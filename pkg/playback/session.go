package playback

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrSessionClosed is returned by Session.Send once the session is closed.
var ErrSessionClosed = errors.New("playback session closed")

type request struct {
	ctx   context.Context
	event Event
	reply chan result
}

type result struct {
	snapshot Snapshot
	err      error
}

// Session runs one Controller on its own goroutine. Events are handled one
// at a time, and a Load is fetched and resolved before the next event is
// admitted.
type Session struct {
	accountID  int
	controller *Controller

	requests  chan request
	shutdown  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(controller *Controller) *Session {
	s := &Session{
		accountID:  controller.accountID,
		controller: controller,
		requests:   make(chan request),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Session) AccountID() int {
	return s.accountID
}

// Send hands ev to the session and waits for the snapshot after it, and any
// fetch it triggered, has been handled.
func (s *Session) Send(ctx context.Context, ev Event) (Snapshot, error) {
	return s.do(ctx, ev)
}

// Snapshot returns the current state without handling an event.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, nil)
}

// Close stops the session goroutine and waits for it to exit. It is safe to
// call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.shutdown)
	})
	<-s.done
}

func (s *Session) do(ctx context.Context, ev Event) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, errors.WithStack(err)
	}
	req := request{ctx: ctx, event: ev, reply: make(chan result, 1)}

	select {
	case s.requests <- req:
	case <-s.shutdown:
		return Snapshot{}, ErrSessionClosed
	case <-ctx.Done():
		return Snapshot{}, errors.WithStack(ctx.Err())
	}

	select {
	case res := <-req.reply:
		return res.snapshot, res.err
	case <-ctx.Done():
		return Snapshot{}, errors.WithStack(ctx.Err())
	}
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.shutdown:
			return
		case req := <-s.requests:
			req.reply <- s.handle(req)
		}
	}
}

func (s *Session) handle(req request) result {
	if req.event == nil {
		return result{snapshot: s.controller.Snapshot()}
	}

	fetch, err := s.controller.Handle(req.ctx, req.event)
	for err == nil && fetch != nil {
		ev := s.controller.Fetch(req.ctx, *fetch)
		fetch, err = s.controller.Handle(req.ctx, ev)
	}

	return result{snapshot: s.controller.Snapshot(), err: err}
}
