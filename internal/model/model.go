package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a regular practicing user.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user. XP is the cumulative score aggregate,
// 100 points per correct answer, updated only via atomic increments.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	XP           int64
	AvatarPath   string
	CreatedAt    time.Time
}

// AuthSession represents an authentication session token.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil
// for anonymous requests.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// Topics is the fixed set of practice subject categories.
var Topics = []string{
	"Quantitative Aptitude",
	"Logical Reasoning",
	"Verbal Ability",
	"Data Interpretation",
	"General Knowledge",
}

// ValidTopic reports whether name is one of the enumerated topics.
func ValidTopic(name string) bool {
	for _, t := range Topics {
		if t == name {
			return true
		}
	}
	return false
}

// Question is one multiple-choice practice question. Immutable once
// received from the generator; owned by a single session.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Result is one completed practice session, insert-only and keyed by a
// generated identifier.
type Result struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	Topic          string    `json:"topic"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	Points         int       `json:"points"`
	CreatedAt      time.Time `json:"created_at"`
}

// Post is a community feed entry.
type Post struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeaderboardEntry is one row of the XP leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	XP          int64  `json:"xp"`
}

// DayActivity is one day of the dashboard's weekly series.
type DayActivity struct {
	Date     string `json:"date"`
	Sessions int    `json:"sessions"`
	Points   int    `json:"points"`
}

// DashboardStats is the dashboard summary for one user.
type DashboardStats struct {
	TotalSessions  int           `json:"total_sessions"`
	TotalXP        int64         `json:"total_xp"`
	Accuracy       *float64      `json:"accuracy,omitempty"`
	WeeklyActivity []DayActivity `json:"weekly_activity"`
}

// AppConfig holds runtime parameters set via CLI flags and env.
type AppConfig struct {
	QuestionsPerSession int
	SessionSeconds      int
	AvatarsDir          string
	SecureCookies       bool // Set Secure flag on cookies (disable for local dev)
}
