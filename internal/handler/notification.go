package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/Feighth-arts/glam-sub000/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	Repo repository.NotificationRepository
}

func (h NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.list)
	r.Post("/notifications/{id}/read", h.markRead)
}

func (h NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	items, err := h.Repo.List(r.Context(), user.ID, parseLimit(r, 200))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, n := range items {
		item := map[string]any{
			"id":        strconv.FormatInt(n.ID, 10),
			"title":     n.Title,
			"message":   n.Message,
			"type":      string(n.Type),
			"timestamp": n.CreatedAt.Format(time.RFC3339),
			"read":      n.ReadAt != nil,
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.MarkRead(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
