package practice

import (
	"context"
	"errors"
	"testing"

	"github.com/aptipro/backend/internal/model"
)

type fakeResultStore struct {
	insertErr error
	xpErr     error

	inserted []model.Result
	xpCalls  []int64
}

func (f *fakeResultStore) InsertResult(r model.Result) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, r)
	return nil
}

func (f *fakeResultStore) AddXP(_ int64, points int64) error {
	if f.xpErr != nil {
		return f.xpErr
	}
	f.xpCalls = append(f.xpCalls, points)
	return nil
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) Publish(channel string, _ any) {
	f.events = append(f.events, channel)
}

func TestReportSaved(t *testing.T) {
	fs := &fakeResultStore{}
	pub := &fakePublisher{}
	r := NewStoreReporter(fs, pub)

	status := r.Report(context.Background(), 42, model.Topics[0], 3, 5)
	if status != ReportSaved {
		t.Fatalf("expected saved, got %q", status)
	}
	if len(fs.inserted) != 1 {
		t.Fatalf("expected one result, got %d", len(fs.inserted))
	}
	got := fs.inserted[0]
	if got.ID == "" {
		t.Error("result must carry a generated identifier")
	}
	if got.UserID != 42 || got.CorrectCount != 3 || got.TotalQuestions != 5 || got.Points != 300 {
		t.Errorf("unexpected result record: %+v", got)
	}
	if len(fs.xpCalls) != 1 || fs.xpCalls[0] != 300 {
		t.Errorf("expected one 300-point increment, got %v", fs.xpCalls)
	}
	if len(pub.events) != 2 {
		t.Errorf("expected results and leaderboard events, got %v", pub.events)
	}
}

func TestReportAnonymousSkipped(t *testing.T) {
	fs := &fakeResultStore{}
	r := NewStoreReporter(fs, nil)

	if status := r.Report(context.Background(), 0, model.Topics[0], 5, 5); status != ReportSkipped {
		t.Fatalf("expected skipped, got %q", status)
	}
	if len(fs.inserted) != 0 || len(fs.xpCalls) != 0 {
		t.Error("anonymous sessions must not touch the store")
	}
}

func TestReportZeroCorrectSkipsIncrement(t *testing.T) {
	fs := &fakeResultStore{}
	r := NewStoreReporter(fs, nil)

	if status := r.Report(context.Background(), 42, model.Topics[0], 0, 5); status != ReportSaved {
		t.Fatalf("expected saved, got %q", status)
	}
	if len(fs.inserted) != 1 {
		t.Error("a zero-score result is still recorded")
	}
	if len(fs.xpCalls) != 0 {
		t.Error("no increment for zero correct answers")
	}
}

func TestReportSaveFailure(t *testing.T) {
	fs := &fakeResultStore{insertErr: errors.New("disk full")}
	pub := &fakePublisher{}
	r := NewStoreReporter(fs, pub)

	if status := r.Report(context.Background(), 42, model.Topics[0], 3, 5); status != ReportSaveFailed {
		t.Fatalf("expected save_failed, got %q", status)
	}
	if len(fs.xpCalls) != 0 {
		t.Error("increment must not be attempted after a failed insert")
	}
	if len(pub.events) != 0 {
		t.Error("no events on a failed save")
	}
}

func TestReportScoreFailure(t *testing.T) {
	fs := &fakeResultStore{xpErr: errors.New("locked")}
	r := NewStoreReporter(fs, nil)

	if status := r.Report(context.Background(), 42, model.Topics[0], 3, 5); status != ReportScoreFailed {
		t.Fatalf("expected score_failed, got %q", status)
	}
	if len(fs.inserted) != 1 {
		t.Error("the saved result stands when only the increment fails")
	}
}
