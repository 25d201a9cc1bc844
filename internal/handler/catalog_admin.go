package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/go-chi/chi/v5"
)

// CatalogAdminHandler manages the global service catalog.
type CatalogAdminHandler struct {
	Repo     repository.CatalogRepository
	Currency string
}

func (h CatalogAdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/admin/services", h.createService)
	r.Put("/admin/services/{id}", h.updateService)
	r.Delete("/admin/services/{id}", h.deleteService)
}

type servicePayload struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	BasePrice   int64  `json:"basePrice"`
	DurationMin int    `json:"durationMin"`
	Points      int    `json:"points"`
}

func (h CatalogAdminHandler) createService(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, nil)
}

func (h CatalogAdminHandler) updateService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	h.upsert(w, r, &id)
}

func (h CatalogAdminHandler) upsert(w http.ResponseWriter, r *http.Request, id *int64) {
	var req servicePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" || req.BasePrice <= 0 {
		writeError(w, http.StatusBadRequest, "name and a positive basePrice are required")
		return
	}
	svc, err := h.Repo.UpsertService(r.Context(), repository.UpsertServiceParams{
		ID:          id,
		Name:        req.Name,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		DurationMin: req.DurationMin,
		Points:      req.Points,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if id == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, toServiceResponses([]domain.Service{*svc}, h.Currency)[0])
}

func (h CatalogAdminHandler) deleteService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.DeleteService(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
