package store

import (
	"time"

	"github.com/aptipro/backend/internal/model"
)

// CreatePost inserts a community feed entry.
func (s *Store) CreatePost(userID int64, content string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO posts (user_id, content, created_at) VALUES (?, ?, ?)`,
		userID, content, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPost returns one post joined with its author's display name.
func (s *Store) GetPost(id int64) (*model.Post, error) {
	row := s.db.QueryRow(
		`SELECT p.id, p.user_id, u.display_name, p.content, p.created_at
		 FROM posts p JOIN users u ON u.id = p.user_id WHERE p.id = ?`, id)
	var p model.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Content, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns the newest posts with author display names.
func (s *Store) ListPosts(limit int) ([]model.Post, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.user_id, u.display_name, p.content, p.created_at
		 FROM posts p JOIN users u ON u.id = p.user_id
		 ORDER BY p.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
