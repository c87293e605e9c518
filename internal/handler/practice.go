package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	appI18n "github.com/aptipro/backend/internal/i18n"
	"github.com/aptipro/backend/internal/model"
	"github.com/aptipro/backend/internal/practice"
)

const practiceCookieName = "practice_owner"

// practiceOwner identifies the session owner: the auth token for logged
// in users, otherwise a random cookie so anonymous users keep a single
// live session too.
func (h *Handler) practiceOwner(w http.ResponseWriter, r *http.Request) (owner string, userID int64) {
	if u := model.UserFromContext(r.Context()); u != nil {
		if c, err := r.Cookie(sessionCookieName); err == nil {
			return c.Value, u.ID
		}
	}
	if c, err := r.Cookie(practiceCookieName); err == nil && c.Value != "" {
		return c.Value, 0
	}
	owner = uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     practiceCookieName,
		Value:    owner,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	return owner, 0
}

// sessionResponse decorates a snapshot with a localized remediation
// message when reporting did not fully succeed.
type sessionResponse struct {
	practice.Snapshot
	ReportMessage string `json:"report_message,omitempty"`
}

func (h *Handler) sessionJSON(r *http.Request, s *practice.Session) sessionResponse {
	resp := sessionResponse{Snapshot: s.View()}
	if resp.Result != nil {
		switch resp.Result.ReportStatus {
		case practice.ReportSaveFailed:
			resp.ReportMessage = appI18n.T(r.Context(), "SaveFailed")
		case practice.ReportScoreFailed:
			resp.ReportMessage = appI18n.T(r.Context(), "ScoreFailed")
		}
	}
	return resp
}

// idleResponse is the snapshot served when the owner has no live
// session. Polling it never allocates server state.
func idleResponse() sessionResponse {
	return sessionResponse{Snapshot: practice.Snapshot{State: practice.StateNotStarted}}
}

func (h *Handler) handlePracticeState(w http.ResponseWriter, r *http.Request) {
	owner, _ := h.practiceOwner(w, r)
	s := h.sessions.Peek(owner)
	if s == nil {
		writeJSON(w, http.StatusOK, idleResponse())
		return
	}
	writeJSON(w, http.StatusOK, h.sessionJSON(r, s))
}

func (h *Handler) handlePracticeStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	owner, userID := h.practiceOwner(w, r)
	s, err := h.sessions.Start(r.Context(), owner, userID, req.Topic)
	switch {
	case errors.Is(err, practice.ErrUnknownTopic):
		writeError(w, http.StatusBadRequest, "unknown_topic", "not a practice topic")
		return
	case errors.Is(err, practice.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", "a session is already running")
		return
	case errors.Is(err, practice.ErrNoQuestions):
		writeError(w, http.StatusBadGateway, "supply_failed", appI18n.T(r.Context(), "SupplyFailure"))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, h.sessionJSON(r, s))
}

func (h *Handler) handlePracticeAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Option string `json:"option"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	owner, _ := h.practiceOwner(w, r)
	s := h.sessions.Peek(owner)
	if s == nil {
		writeError(w, http.StatusConflict, "invalid_state", "no question awaiting an answer")
		return
	}
	if err := s.SubmitAnswer(req.Option); err != nil {
		writeError(w, http.StatusConflict, "invalid_state", "no question awaiting an answer")
		return
	}
	writeJSON(w, http.StatusOK, h.sessionJSON(r, s))
}

func (h *Handler) handlePracticeAdvance(w http.ResponseWriter, r *http.Request) {
	owner, _ := h.practiceOwner(w, r)
	s := h.sessions.Peek(owner)
	if s == nil {
		writeError(w, http.StatusConflict, "invalid_state", "no session in progress")
		return
	}
	err := s.Advance()
	switch {
	case errors.Is(err, practice.ErrNotAnswered):
		writeError(w, http.StatusConflict, "not_answered", "answer the current question first")
		return
	case err != nil:
		writeError(w, http.StatusConflict, "invalid_state", "no session in progress")
		return
	}
	writeJSON(w, http.StatusOK, h.sessionJSON(r, s))
}

func (h *Handler) handlePracticeReset(w http.ResponseWriter, r *http.Request) {
	owner, _ := h.practiceOwner(w, r)
	if err := h.sessions.Reset(owner); err != nil {
		writeError(w, http.StatusConflict, "invalid_state", "cannot reset a running session")
		return
	}
	writeJSON(w, http.StatusOK, idleResponse())
}

func (h *Handler) handlePracticeDiscard(w http.ResponseWriter, r *http.Request) {
	owner, _ := h.practiceOwner(w, r)
	h.sessions.Discard(owner)
	w.WriteHeader(http.StatusNoContent)
}
