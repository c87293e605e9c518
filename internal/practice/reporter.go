package practice

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aptipro/backend/internal/model"
)

// ReportStatus classifies the outcome of result reporting. These are
// stable machine codes; clients pick remediation messages from them
// instead of matching backend error text.
type ReportStatus string

const (
	// ReportSaved means the result record and score increment landed.
	ReportSaved ReportStatus = "saved"
	// ReportSkipped means there was no authenticated identity, so
	// persistence was silently skipped (anonymous practice).
	ReportSkipped ReportStatus = "skipped"
	// ReportSaveFailed means the result insert failed. The local score
	// stands; the score increment is not attempted.
	ReportSaveFailed ReportStatus = "save_failed"
	// ReportScoreFailed means the result was saved but the XP
	// increment failed. No compensating delete is issued: the
	// aggregate is advisory, not used for access control.
	ReportScoreFailed ReportStatus = "score_failed"
)

// ResultStore is the persistence surface the reporter needs.
type ResultStore interface {
	InsertResult(r model.Result) error
	AddXP(userID int64, points int64) error
}

// Publisher receives change notifications after a successful save.
type Publisher interface {
	Publish(channel string, payload any)
}

// Reporter persists a completed session's outcome.
type Reporter interface {
	Report(ctx context.Context, userID int64, topic string, correctCount, totalQuestions int) ReportStatus
}

// StoreReporter reports results into the store, best effort: no
// retries, no rollback of local completion state.
type StoreReporter struct {
	store ResultStore
	pub   Publisher
}

// NewStoreReporter creates a reporter. pub may be nil.
func NewStoreReporter(store ResultStore, pub Publisher) *StoreReporter {
	return &StoreReporter{store: store, pub: pub}
}

// Report persists one result record and, if anything was answered
// correctly, increments the user's XP aggregate. The increment is only
// attempted after a successful insert.
func (r *StoreReporter) Report(ctx context.Context, userID int64, topic string, correctCount, totalQuestions int) ReportStatus {
	if userID == 0 {
		return ReportSkipped
	}

	result := model.Result{
		ID:             uuid.NewString(),
		UserID:         userID,
		Topic:          topic,
		CorrectCount:   correctCount,
		TotalQuestions: totalQuestions,
		Points:         correctCount * pointsPerCorrect,
		CreatedAt:      time.Now(),
	}

	if err := r.store.InsertResult(result); err != nil {
		slog.Error("failed to save result", "user_id", userID, "topic", topic, "error", err)
		return ReportSaveFailed
	}

	if correctCount > 0 {
		if err := r.store.AddXP(userID, int64(result.Points)); err != nil {
			slog.Error("failed to increment score", "user_id", userID, "points", result.Points, "error", err)
			return ReportScoreFailed
		}
	}

	if r.pub != nil {
		r.pub.Publish("results", result)
		r.pub.Publish("leaderboard", map[string]any{"user_id": userID, "points": result.Points})
	}

	slog.Info("saved practice result",
		"user_id", userID, "topic", topic,
		"correct", correctCount, "total", totalQuestions, "points", result.Points)
	return ReportSaved
}
