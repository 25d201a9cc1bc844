package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/go-chi/chi/v5"
)

// UserAdminHandler lets admins inspect accounts and suspend or reinstate them.
type UserAdminHandler struct {
	Repo repository.UserRepository
}

func (h UserAdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/users", h.list)
	r.Put("/admin/users/{id}/status", h.setStatus)
}

func (h UserAdminHandler) list(w http.ResponseWriter, r *http.Request) {
	role := domain.UserRole(r.URL.Query().Get("role"))
	items, err := h.Repo.List(r.Context(), role, parseLimit(r, 200))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, u := range items {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h UserAdminHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	status := domain.UserStatus(req.Status)
	if status != domain.UserActive && status != domain.UserSuspended {
		writeError(w, http.StatusBadRequest, "status must be active or suspended")
		return
	}
	u, err := h.Repo.SetStatus(r.Context(), id, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*u))
}

func toUserResponse(u domain.User) map[string]any {
	return map[string]any{
		"id":       strconv.FormatInt(u.ID, 10),
		"name":     u.Name,
		"email":    u.Email,
		"phone":    u.Phone,
		"role":     string(u.Role),
		"status":   string(u.Status),
		"isGoogle": u.IsGoogle,
	}
}
