package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/Feighth-arts/glam-sub000/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

// OfferingHandler lets providers manage which catalog services they offer,
// with optional price/points overrides and a weekly availability schedule.
type OfferingHandler struct {
	Repo     repository.CatalogRepository
	Currency string
}

func (h OfferingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/provider/services", h.list)
	r.Put("/provider/services/{serviceID}", h.upsert)
	r.Delete("/provider/services/{serviceID}", h.remove)
}

func (h OfferingHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	items, err := h.Repo.ListProviderServices(r.Context(), user.ID, parseLimit(r, 100))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferingResponses(items, h.Currency))
}

func (h OfferingHandler) upsert(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	serviceID, err := strconv.ParseInt(chi.URLParam(r, "serviceID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}
	var req struct {
		CustomPrice  *int64              `json:"customPrice"`
		CustomPoints *int                `json:"customPoints"`
		Availability domain.Availability `json:"availability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.CustomPrice != nil && *req.CustomPrice <= 0 {
		writeError(w, http.StatusBadRequest, "customPrice must be positive")
		return
	}
	if req.CustomPoints != nil && *req.CustomPoints < 0 {
		writeError(w, http.StatusBadRequest, "customPoints must not be negative")
		return
	}
	ps, err := h.Repo.UpsertOffering(r.Context(), repository.UpsertOfferingParams{
		ProviderID:   user.ID,
		ServiceID:    serviceID,
		CustomPrice:  req.CustomPrice,
		CustomPoints: req.CustomPoints,
		Availability: req.Availability,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferingResponse(*ps, h.Currency))
}

func (h OfferingHandler) remove(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	serviceID, err := strconv.ParseInt(chi.URLParam(r, "serviceID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}
	if err := h.Repo.DeleteOffering(r.Context(), user.ID, serviceID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
