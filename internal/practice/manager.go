package practice

import (
	"context"
	"sync"
	"time"

	"github.com/aptipro/backend/internal/model"
)

// idleTTL is how long a session that is not running may sit untouched
// before the manager reclaims it.
const idleTTL = 30 * time.Minute

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager owns the live sessions, at most one per owner key. The owner
// key is the auth session token, or the anonymous practice cookie for
// users without an identity. Entries are only created by Start, so
// read-only polling never grows the map, and idle entries are swept on
// each Start once past idleTTL.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry

	source   Source
	reporter Reporter
	count    int
	seconds  int
}

// NewManager creates a session manager.
func NewManager(source Source, reporter Reporter, cfg model.AppConfig) *Manager {
	return &Manager{
		entries:  make(map[string]*entry),
		source:   source,
		reporter: reporter,
		count:    cfg.QuestionsPerSession,
		seconds:  cfg.SessionSeconds,
	}
}

// Peek returns the owner's session, or nil if none exists. It never
// creates one.
func (m *Manager) Peek(owner string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[owner]
	if !ok {
		return nil
	}
	e.lastSeen = time.Now()
	return e.session
}

// Start begins a session on the given topic, creating it if needed, and
// arms the one-second timer. Errors pass through from SelectTopic.
func (m *Manager) Start(ctx context.Context, owner string, userID int64, topic string) (*Session, error) {
	now := time.Now()
	m.mu.Lock()
	m.sweep(now)
	e, ok := m.entries[owner]
	if !ok {
		e = &entry{session: NewSession(m.source, m.reporter, userID, m.count, m.seconds)}
		m.entries[owner] = e
	}
	e.lastSeen = now
	s := e.session
	m.mu.Unlock()

	if err := s.SelectTopic(ctx, topic); err != nil {
		return s, err
	}
	go runTimer(s)
	return s, nil
}

// Reset clears the owner's session and releases its entry. A missing
// session is already reset; resetting a running one fails.
func (m *Manager) Reset(owner string) error {
	m.mu.Lock()
	e, ok := m.entries[owner]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	if err := e.session.Reset(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, owner)
	m.mu.Unlock()
	return nil
}

// Discard drops the owner's session, if any. The timer goroutine
// notices on its next tick and exits.
func (m *Manager) Discard(owner string) {
	m.mu.Lock()
	e, ok := m.entries[owner]
	delete(m.entries, owner)
	m.mu.Unlock()
	if ok {
		e.session.Discard()
	}
}

// sweep reclaims entries whose session is not running and that nobody
// has touched for idleTTL. Caller holds m.mu.
func (m *Manager) sweep(now time.Time) {
	for owner, e := range m.entries {
		if now.Sub(e.lastSeen) < idleTTL {
			continue
		}
		if e.session.View().State == StateInProgress {
			continue
		}
		delete(m.entries, owner)
	}
}

// runTimer drives Tick once per wall-clock second until the session
// leaves InProgress.
func runTimer(s *Session) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for range t.C {
		if !s.Tick() {
			return
		}
	}
}
