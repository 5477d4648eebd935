package playback

import (
	"context"
	"sync"

	"github.com/robinjoseph08/golib/logger"
)

// Manager keeps at most one Session per account.
type Manager struct {
	catalog Catalog
	opts    Options
	log     logger.Logger

	mu       sync.Mutex
	sessions map[int]*Session
}

func NewManager(catalog Catalog, opts Options) *Manager {
	return &Manager{
		catalog:  catalog,
		opts:     opts.withDefaults(),
		log:      logger.New(),
		sessions: map[int]*Session{},
	}
}

func (m *Manager) Get(accountID int) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[accountID]
	return s, ok
}

// Open starts a new session for the account, closing the one it replaces.
func (m *Manager) Open(accountID int) *Session {
	s := NewSession(NewController(accountID, m.catalog, m.opts))

	m.mu.Lock()
	old := m.sessions[accountID]
	m.sessions[accountID] = s
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	m.log.Info("player session opened", logger.Data{"account_id": accountID, "replaced": old != nil})
	return s
}

// GetOrOpen returns the account's session, opening one if there is none.
func (m *Manager) GetOrOpen(accountID int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[accountID]; ok {
		return s
	}
	s := NewSession(NewController(accountID, m.catalog, m.opts))
	m.sessions[accountID] = s
	m.log.Info("player session opened", logger.Data{"account_id": accountID, "replaced": false})
	return s
}

func (m *Manager) Close(accountID int) {
	m.mu.Lock()
	s, ok := m.sessions[accountID]
	delete(m.sessions, accountID)
	m.mu.Unlock()

	if ok {
		s.Close()
		m.log.Info("player session closed", logger.Data{"account_id": accountID})
	}
}

// CloseSession closes s and forgets it, unless the account has already moved
// on to a newer session.
func (m *Manager) CloseSession(s *Session) {
	m.mu.Lock()
	current := m.sessions[s.AccountID()] == s
	if current {
		delete(m.sessions, s.AccountID())
	}
	m.mu.Unlock()

	s.Close()
	if current {
		m.log.Info("player session closed", logger.Data{"account_id": s.AccountID()})
	}
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[int]*Session{}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	m.log.Info("player sessions closed", logger.Data{"count": len(sessions)})
}

// Resume loads the book where the account left off, or at the start of its
// first chapter.
func (m *Manager) Resume(ctx context.Context, accountID, bookID int) (Snapshot, error) {
	props, err := m.resumeProps(ctx, accountID, bookID)
	if err != nil {
		return Snapshot{}, err
	}
	return m.GetOrOpen(accountID).Send(ctx, Load{Props: props})
}

func (m *Manager) resumeProps(ctx context.Context, accountID, bookID int) (AudioProps, error) {
	progress, err := m.catalog.GetProgress(ctx, accountID, bookID)
	if err != nil {
		return AudioProps{}, err
	}
	if progress != nil {
		return AudioProps{BookID: bookID, ChapterID: progress.ChapterID, InitOffset: progress.Offset}, nil
	}

	first, err := m.catalog.SearchChapterByOrdinal(ctx, bookID, 0)
	if err != nil {
		return AudioProps{}, err
	}
	return AudioProps{BookID: bookID, ChapterID: first.ID}, nil
}
