package practice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aptipro/backend/internal/model"
)

func testConfig() model.AppConfig {
	return model.AppConfig{QuestionsPerSession: 5, SessionSeconds: 300}
}

func startTestSession(t *testing.T, m *Manager, owner string, userID int64) *Session {
	t.Helper()
	s, err := m.Start(context.Background(), owner, userID, model.Topics[0])
	if err != nil {
		t.Fatalf("Start(%q): %v", owner, err)
	}
	return s
}

func TestManagerPeekNeverAllocates(t *testing.T) {
	m := NewManager(&fakeSource{questions: makeQuestions(5)}, &fakeReporter{status: ReportSaved}, testConfig())

	// Polling owners that never started anything must not grow the map.
	for _, owner := range []string{"drive-by-1", "drive-by-2", "drive-by-3"} {
		if s := m.Peek(owner); s != nil {
			t.Fatalf("Peek(%q) created a session", owner)
		}
	}
	if n := len(m.entries); n != 0 {
		t.Errorf("expected no entries after polling, got %d", n)
	}
}

func TestManagerOneSessionPerOwner(t *testing.T) {
	m := NewManager(&fakeSource{questions: makeQuestions(5)}, &fakeReporter{status: ReportSaved}, testConfig())

	a := startTestSession(t, m, "owner-a", 1)
	if got := m.Peek("owner-a"); got != a {
		t.Error("same owner must get the same session")
	}
	if got := startTestSession(t, m, "owner-b", 2); got == a {
		t.Error("different owners must get different sessions")
	}
}

func TestManagerStart(t *testing.T) {
	m := NewManager(&fakeSource{questions: makeQuestions(5)}, &fakeReporter{status: ReportSaved}, testConfig())

	s := startTestSession(t, m, "owner-a", 1)
	snap := s.View()
	if snap.State != StateInProgress || snap.Topic != model.Topics[0] {
		t.Errorf("unexpected snapshot after start: %+v", snap)
	}
}

func TestManagerStartSupplyFailure(t *testing.T) {
	m := NewManager(&fakeSource{err: errors.New("down")}, &fakeReporter{status: ReportSaved}, testConfig())

	s, err := m.Start(context.Background(), "owner-a", 1, model.Topics[0])
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if s.View().State != StateNotStarted {
		t.Error("failed start must leave the session idle")
	}
}

func TestManagerDiscard(t *testing.T) {
	m := NewManager(&fakeSource{questions: makeQuestions(5)}, &fakeReporter{status: ReportSaved}, testConfig())

	s := startTestSession(t, m, "owner-a", 1)
	m.Discard("owner-a")

	if s.View().State != StateNotStarted {
		t.Error("discarded session must return to not_started")
	}
	if m.Peek("owner-a") != nil {
		t.Error("discard must drop the session from the manager")
	}
}

func TestManagerResetReleasesEntry(t *testing.T) {
	cfg := model.AppConfig{QuestionsPerSession: 1, SessionSeconds: 300}
	m := NewManager(&fakeSource{questions: makeQuestions(1)}, &fakeReporter{status: ReportSaved}, cfg)

	s := startTestSession(t, m, "owner-a", 1)

	// Running sessions refuse reset and the entry stays.
	if err := m.Reset("owner-a"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for a running session, got %v", err)
	}
	if m.Peek("owner-a") != s {
		t.Fatal("failed reset must not drop the entry")
	}

	if err := s.SubmitAnswer("A"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if err := m.Reset("owner-a"); err != nil {
		t.Fatalf("Reset after completion: %v", err)
	}
	if m.Peek("owner-a") != nil {
		t.Error("reset must release the completed session")
	}

	// Resetting an owner with no session is a no-op.
	if err := m.Reset("owner-a"); err != nil {
		t.Errorf("Reset without a session: %v", err)
	}
}

func TestManagerSweepsIdleSessions(t *testing.T) {
	m := NewManager(&fakeSource{questions: makeQuestions(5)}, &fakeReporter{status: ReportSaved}, testConfig())

	stale := startTestSession(t, m, "stale", 1)
	stale.Discard() // completed timers aside, an idle session
	running := startTestSession(t, m, "running", 2)

	m.mu.Lock()
	past := time.Now().Add(-2 * idleTTL)
	m.entries["stale"].lastSeen = past
	m.entries["running"].lastSeen = past
	m.mu.Unlock()

	// Any Start triggers the sweep.
	startTestSession(t, m, "fresh", 3)

	if m.Peek("stale") != nil {
		t.Error("idle session past the TTL must be reclaimed")
	}
	if m.Peek("running") != running {
		t.Error("a session still in progress must never be reclaimed")
	}
	if m.Peek("fresh") == nil {
		t.Error("the fresh session must survive its own sweep")
	}
}
