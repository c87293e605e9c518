package store

import (
	"time"

	"github.com/aptipro/backend/internal/model"
)

// InsertResult stores one completed session outcome. Results are
// insert-only and keyed by the caller-generated identifier; there is no
// upsert path.
func (s *Store) InsertResult(r model.Result) error {
	_, err := s.db.Exec(
		`INSERT INTO results (id, user_id, topic, correct_count, total_questions, points, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Topic, r.CorrectCount, r.TotalQuestions, r.Points, r.CreatedAt,
	)
	return err
}

// RecentResults returns a user's latest results, newest first.
func (s *Store) RecentResults(userID int64, limit int) ([]model.Result, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, topic, correct_count, total_questions, points, created_at
		 FROM results WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Result
	for rows.Next() {
		var r model.Result
		if err := rows.Scan(&r.ID, &r.UserID, &r.Topic, &r.CorrectCount,
			&r.TotalQuestions, &r.Points, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ResultsSince returns a user's results created at or after t, oldest
// first. Callers aggregate these in Go for the dashboard.
func (s *Store) ResultsSince(userID int64, t time.Time) ([]model.Result, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, topic, correct_count, total_questions, points, created_at
		 FROM results WHERE user_id = ? AND created_at >= ? ORDER BY created_at ASC`,
		userID, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Result
	for rows.Next() {
		var r model.Result
		if err := rows.Scan(&r.ID, &r.UserID, &r.Topic, &r.CorrectCount,
			&r.TotalQuestions, &r.Points, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// AllResults returns every stored result, newest first. Used by the
// export command.
func (s *Store) AllResults() ([]model.Result, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, topic, correct_count, total_questions, points, created_at
		 FROM results ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Result
	for rows.Next() {
		var r model.Result
		if err := rows.Scan(&r.ID, &r.UserID, &r.Topic, &r.CorrectCount,
			&r.TotalQuestions, &r.Points, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ScoreTotals returns the lifetime sums of correct answers and asked
// questions for a user, for accuracy display.
func (s *Store) ScoreTotals(userID int64) (correct, answered int64, err error) {
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(correct_count), 0), COALESCE(SUM(total_questions), 0)
		 FROM results WHERE user_id = ?`, userID).Scan(&correct, &answered)
	return correct, answered, err
}

// ResultCount returns the number of stored results for a user.
func (s *Store) ResultCount(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}
