package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/aptipro/backend/internal/model"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(u model.User) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO users (username, display_name, password_hash, role, active, xp, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		u.Username, u.DisplayName, u.PasswordHash, u.Role, u.Active, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created user", "id", id, "username", u.Username, "role", u.Role)
	return id, nil
}

const userColumns = `id, username, display_name, password_hash, role, active, xp, avatar_path, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash,
		&u.Role, &u.Active, &u.XP, &u.AvatarPath, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername returns a user by username, or nil if absent.
func (s *Store) GetUserByUsername(username string) (*model.User, error) {
	return scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// GetUserByID returns a user by ID, or nil if absent.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	return scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// UpdateDisplayName changes a user's display name.
func (s *Store) UpdateDisplayName(id int64, displayName string) error {
	_, err := s.db.Exec(`UPDATE users SET display_name = ? WHERE id = ?`, displayName, id)
	return err
}

// SetAvatarPath records where a user's avatar file is stored.
func (s *Store) SetAvatarPath(id int64, path string) error {
	_, err := s.db.Exec(`UPDATE users SET avatar_path = ? WHERE id = ?`, path, id)
	return err
}

// AddXP increments a user's aggregate score in place. The aggregate is
// never read-modified-written by callers, which keeps concurrent
// sessions for the same user from losing updates.
func (s *Store) AddXP(userID int64, points int64) error {
	_, err := s.db.Exec(`UPDATE users SET xp = xp + ? WHERE id = ?`, points, userID)
	return err
}

// Leaderboard returns the top users by XP.
func (s *Store) Leaderboard(limit int) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, username, display_name, xp FROM users
		 WHERE active ORDER BY xp DESC, username ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.DisplayName, &e.XP); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
