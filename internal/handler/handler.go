package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aptipro/backend/internal/model"
	"github.com/aptipro/backend/internal/practice"
	"github.com/aptipro/backend/internal/realtime"
	"github.com/aptipro/backend/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	sessions *practice.Manager
	hub      *realtime.Hub
	config   model.AppConfig
}

// New creates a new Handler.
func New(s *store.Store, sessions *practice.Manager, hub *realtime.Hub, cfg model.AppConfig) *Handler {
	return &Handler{store: s, sessions: sessions, hub: hub, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.csrfMiddleware)
	r.Use(h.identify)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", h.handleRegister)
		api.Post("/auth/login", h.handleLogin)
		api.Post("/auth/logout", h.handleLogout)

		api.Get("/topics", h.handleTopics)
		api.Get("/leaderboard", h.handleLeaderboard)
		api.Get("/posts", h.handleListPosts)
		api.Get("/events", h.handleEvents)

		// Practice works for anonymous users too; such sessions are
		// never persisted.
		api.Route("/practice", func(p chi.Router) {
			p.Get("/", h.handlePracticeState)
			p.Post("/start", h.handlePracticeStart)
			p.Post("/answer", h.handlePracticeAnswer)
			p.Post("/next", h.handlePracticeAdvance)
			p.Post("/reset", h.handlePracticeReset)
			p.Delete("/", h.handlePracticeDiscard)
		})

		api.Group(func(priv chi.Router) {
			priv.Use(h.requireAuth)
			priv.Get("/dashboard", h.handleDashboard)
			priv.Get("/me", h.handleMe)
			priv.Put("/me", h.handleUpdateMe)
			priv.Get("/me/results", h.handleMyResults)
			priv.Post("/me/avatar", h.handleUploadAvatar)
			priv.Get("/me/avatar", h.handleGetAvatar)
			priv.Post("/posts", h.handleCreatePost)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError emits a JSON error with a stable machine code. Clients
// branch on the code, never on the message text.
func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) handleTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"topics": model.Topics})
}
