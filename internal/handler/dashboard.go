package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aptipro/backend/internal/model"
)

const weeklyDays = 7

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	total, err := h.store.ResultCount(user.ID)
	if err != nil {
		slog.Error("failed to count results", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	// Week window starts at local midnight six days back, so today is
	// the last bucket.
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(weeklyDays - 1))

	results, err := h.store.ResultsSince(user.ID, start)
	if err != nil {
		slog.Error("failed to load weekly results", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	stats := model.DashboardStats{
		TotalSessions:  total,
		TotalXP:        user.XP,
		WeeklyActivity: weeklyActivity(start, results),
	}

	correct, answered, err := h.store.ScoreTotals(user.ID)
	if err != nil {
		slog.Error("failed to load score totals", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if answered > 0 {
		acc := float64(correct) * 100.0 / float64(answered)
		stats.Accuracy = &acc
	}

	writeJSON(w, http.StatusOK, stats)
}

// weeklyActivity buckets results into seven day slots, oldest first.
// Days without activity stay at zero so the chart keeps its shape.
func weeklyActivity(start time.Time, results []model.Result) []model.DayActivity {
	const day = "2006-01-02"
	days := make([]model.DayActivity, weeklyDays)
	index := make(map[string]int, weeklyDays)
	for i := range days {
		date := start.AddDate(0, 0, i).Format(day)
		days[i] = model.DayActivity{Date: date}
		index[date] = i
	}
	for _, r := range results {
		if i, ok := index[r.CreatedAt.Format(day)]; ok {
			days[i].Sessions++
			days[i].Points += r.Points
		}
	}
	return days
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 10, 100)
	entries, err := h.store.Leaderboard(limit)
	if err != nil {
		slog.Error("failed to load leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleMyResults(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	limit := parseLimit(r, 20, 100)
	results, err := h.store.RecentResults(user.ID, limit)
	if err != nil {
		slog.Error("failed to load results", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func parseLimit(r *http.Request, def, max int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
