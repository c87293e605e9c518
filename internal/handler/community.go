package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appI18n "github.com/aptipro/backend/internal/i18n"
	"github.com/aptipro/backend/internal/model"
)

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 200)
	posts, err := h.store.ListPosts(limit)
	if err != nil {
		slog.Error("failed to list posts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "post_empty", appI18n.T(r.Context(), "PostEmpty"))
		return
	}

	id, err := h.store.CreatePost(user.ID, req.Content)
	if err != nil {
		slog.Error("failed to create post", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	post, err := h.store.GetPost(id)
	if err != nil {
		slog.Error("failed to load post", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	h.hub.Publish("community", post)
	writeJSON(w, http.StatusCreated, post)
}

type profile struct {
	ID          int64          `json:"id"`
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Role        model.UserRole `json:"role"`
	XP          int64          `json:"xp"`
	HasAvatar   bool           `json:"has_avatar"`
	CreatedAt   time.Time      `json:"created_at"`
}

func profileResponse(u *model.User) profile {
	return profile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		XP:          u.XP,
		HasAvatar:   u.AvatarPath != "",
		CreatedAt:   u.CreatedAt,
	}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileResponse(model.UserFromContext(r.Context())))
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "display name required")
		return
	}

	if err := h.store.UpdateDisplayName(user.ID, req.DisplayName); err != nil {
		slog.Error("failed to update display name", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	user.DisplayName = req.DisplayName
	writeJSON(w, http.StatusOK, profileResponse(user))
}

const maxAvatarBytes = 2 << 20

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

func (h *Handler) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "avatar_too_large", appI18n.T(r.Context(), "AvatarTooLarge"))
		return
	}
	file, _, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to read file")
		return
	}
	if len(data) > maxAvatarBytes {
		writeError(w, http.StatusBadRequest, "avatar_too_large", appI18n.T(r.Context(), "AvatarTooLarge"))
		return
	}

	ext, ok := avatarExtensions[http.DetectContentType(data)]
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", "avatar must be PNG or JPEG")
		return
	}

	if err := os.MkdirAll(h.config.AvatarsDir, 0o755); err != nil {
		slog.Error("failed to create avatars dir", "dir", h.config.AvatarsDir, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	path := filepath.Join(h.config.AvatarsDir, fmt.Sprintf("user_%d%s", user.ID, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Error("failed to write avatar", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if err := h.store.SetAvatarPath(user.ID, path); err != nil {
		slog.Error("failed to record avatar path", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	slog.Info("uploaded avatar", "user_id", user.ID, "path", path, "bytes", len(data))
	user.AvatarPath = path
	writeJSON(w, http.StatusOK, profileResponse(user))
}

func (h *Handler) handleGetAvatar(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if user.AvatarPath == "" {
		writeError(w, http.StatusNotFound, "not_found", "no avatar uploaded")
		return
	}
	http.ServeFile(w, r, user.AvatarPath)
}
