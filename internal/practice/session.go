package practice

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aptipro/backend/internal/model"
)

// State is the lifecycle state of a practice session.
type State string

const (
	StateNotStarted State = "not_started"
	StateLoading    State = "loading"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

var (
	// ErrInvalidState is returned when an operation is called outside
	// the states where it is legal. Correct UI gating never hits this.
	ErrInvalidState = errors.New("practice: operation not valid in current state")
	// ErrNoQuestions is the supply-failure signal: the generator
	// returned no usable questions for the topic.
	ErrNoQuestions = errors.New("practice: question supply returned no questions")
	// ErrUnknownTopic is returned for a topic outside the fixed list.
	ErrUnknownTopic = errors.New("practice: unknown topic")
	// ErrNotAnswered is returned by Advance when the current question
	// has no submitted answer yet.
	ErrNotAnswered = errors.New("practice: current question has no submitted answer")
)

// Source supplies generated questions for a topic. An empty slice (with
// or without an error) signals supply failure; no structured error is
// propagated beyond that.
type Source interface {
	Generate(ctx context.Context, topic string, count int) ([]model.Question, error)
}

// Result is computed once at completion and never recomputed.
type Result struct {
	CorrectCount   int          `json:"correct_count"`
	TotalQuestions int          `json:"total_questions"`
	PointsEarned   int          `json:"points_earned"`
	ReportStatus   ReportStatus `json:"report_status"`
}

// Session is one timed practice test for one topic. All operations are
// serialized by an internal mutex: the only concurrent callers are the
// per-second timer tick and HTTP handlers, and the mutex plays the role
// of the event queue that serialized them in the browser.
type Session struct {
	mu       sync.Mutex
	source   Source
	reporter Reporter
	userID   int64 // 0 for anonymous sessions

	state           State
	epoch           uint64 // bumped on clear; invalidates an in-flight fetch
	topic           string
	questions       []model.Question
	answers         []string
	answered        []bool
	current         int
	remaining       int
	explanationOpen bool
	result          *Result

	duration int // session length in seconds
	count    int // questions per session
}

// NewSession creates an idle session for one owner. userID is 0 for
// anonymous practice; such sessions complete locally but are never
// persisted.
func NewSession(source Source, reporter Reporter, userID int64, count, seconds int) *Session {
	return &Session{
		source:   source,
		reporter: reporter,
		userID:   userID,
		state:    StateNotStarted,
		duration: seconds,
		count:    count,
	}
}

// SelectTopic starts a session for the given topic. Valid only from
// NotStarted. On supply failure the session returns to NotStarted and
// the caller gets ErrNoQuestions; no retry is attempted.
func (s *Session) SelectTopic(ctx context.Context, topic string) error {
	s.mu.Lock()
	if s.state != StateNotStarted {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if !model.ValidTopic(topic) {
		s.mu.Unlock()
		return ErrUnknownTopic
	}
	s.state = StateLoading
	epoch := s.epoch
	count := s.count
	s.mu.Unlock()

	// The generator call runs outside the lock so a slow supply never
	// blocks snapshot reads. No user input is possible while Loading.
	questions, err := s.source.Generate(ctx, topic, count)
	if err != nil {
		slog.Warn("question supply failed", "topic", topic, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading || s.epoch != epoch {
		// Discarded while the fetch was in flight; the questions belong
		// to a session that no longer exists.
		return ErrInvalidState
	}
	if len(questions) == 0 {
		s.state = StateNotStarted
		return ErrNoQuestions
	}

	s.topic = topic
	s.questions = questions
	s.answers = make([]string, len(questions))
	s.answered = make([]bool, len(questions))
	s.current = 0
	s.remaining = s.duration
	s.explanationOpen = false
	s.result = nil
	s.state = StateInProgress
	return nil
}

// Tick fires once per elapsed second. It decrements the clock and
// triggers completion at zero. Calls outside InProgress are no-ops, so
// a late tick after completion is harmless. The return value reports
// whether the session is still running, letting the timer goroutine
// stop itself.
func (s *Session) Tick() bool {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return false
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		report := s.completeLocked()
		s.mu.Unlock()
		if report != nil {
			report()
		}
		return false
	}
	s.mu.Unlock()
	return true
}

// SubmitAnswer records the selected option for the current question and
// reveals the explanation. Valid only while InProgress. Repeated calls
// for the same question overwrite the recorded answer (last write wins;
// the UI disables input after the first submission).
func (s *Session) SubmitAnswer(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrInvalidState
	}
	s.answers[s.current] = option
	s.answered[s.current] = true
	s.explanationOpen = true
	return nil
}

// Advance moves to the next question, or completes the session after
// the last one. Valid only while InProgress and only once an answer has
// been submitted for the current question.
func (s *Session) Advance() error {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if !s.answered[s.current] {
		s.mu.Unlock()
		return ErrNotAnswered
	}
	if s.current < len(s.questions)-1 {
		s.current++
		s.explanationOpen = false
		s.mu.Unlock()
		return nil
	}
	report := s.completeLocked()
	s.mu.Unlock()
	if report != nil {
		report()
	}
	return nil
}

// Complete finishes the session early. It is idempotent: a second call,
// or the timer firing after a final Advance, is a no-op.
func (s *Session) Complete() {
	s.mu.Lock()
	report := s.completeLocked()
	s.mu.Unlock()
	if report != nil {
		report()
	}
}

// completeLocked computes the score and transitions to Completed.
// Callers hold s.mu and must invoke the returned function, if any,
// after releasing it: the reporter does synchronous database work that
// must not stall snapshot reads or the ticker. The state guard makes
// the timer-expiry/final-advance race harmless regardless of which
// trigger fires first, and guarantees at most one non-nil return per
// session run.
func (s *Session) completeLocked() func() {
	if s.state != StateInProgress {
		return nil
	}

	correct := 0
	for i, q := range s.questions {
		// An unanswered question never counts, even if the correct
		// answer were somehow the empty string.
		if s.answered[i] && s.answers[i] == q.CorrectAnswer {
			correct++
		}
	}

	s.state = StateCompleted
	s.result = &Result{
		CorrectCount:   correct,
		TotalQuestions: len(s.questions),
		PointsEarned:   correct * pointsPerCorrect,
	}

	userID, topic, total := s.userID, s.topic, len(s.questions)
	return func() {
		// Best effort: the locally computed score stands whatever the
		// reporter says, so the session remains Completed on failure.
		status := s.reporter.Report(context.Background(), userID, topic, correct, total)
		s.mu.Lock()
		if s.result != nil {
			s.result.ReportStatus = status
		}
		s.mu.Unlock()
	}
}

// Reset clears all session state. Valid from Completed or NotStarted.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted && s.state != StateNotStarted {
		return ErrInvalidState
	}
	s.clear()
	return nil
}

// Discard drops the session unconditionally, the equivalent of
// navigating away mid-test. Nothing is reported.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Session) clear() {
	s.state = StateNotStarted
	s.epoch++
	s.topic = ""
	s.questions = nil
	s.answers = nil
	s.answered = nil
	s.current = 0
	s.remaining = 0
	s.explanationOpen = false
	s.result = nil
}

const pointsPerCorrect = 100

// QuestionView is the client-facing shape of the current question. The
// correct answer and explanation are withheld until an answer has been
// submitted.
type QuestionView struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	Selected      string   `json:"selected,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Snapshot is a point-in-time copy of the session for rendering.
type Snapshot struct {
	State          State         `json:"state"`
	Topic          string        `json:"topic,omitempty"`
	CurrentIndex   int           `json:"current_index"`
	TotalQuestions int           `json:"total_questions"`
	TimeRemaining  int           `json:"time_remaining"`
	Question       *QuestionView `json:"question,omitempty"`
	Result         *Result       `json:"result,omitempty"`
}

// View returns a snapshot of the session state.
func (s *Session) View() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:          s.state,
		Topic:          s.topic,
		CurrentIndex:   s.current,
		TotalQuestions: len(s.questions),
		TimeRemaining:  s.remaining,
	}
	if s.state == StateInProgress {
		q := s.questions[s.current]
		qv := &QuestionView{
			Text:    q.Text,
			Options: append([]string(nil), q.Options...),
		}
		if s.explanationOpen {
			qv.Selected = s.answers[s.current]
			qv.CorrectAnswer = q.CorrectAnswer
			qv.Explanation = q.Explanation
		}
		snap.Question = qv
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}
