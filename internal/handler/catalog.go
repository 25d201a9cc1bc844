package handler

import (
	"net/http"
	"strconv"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/go-chi/chi/v5"
)

// CatalogHandler serves the public service catalog and provider listings.
type CatalogHandler struct {
	Repo     repository.CatalogRepository
	Currency string
}

func (h CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/services", h.listServices)
	r.Get("/providers/{providerID}/services", h.listProviderServices)
}

func (h CatalogHandler) listServices(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.ListServices(r.Context(), parseLimit(r, 100))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toServiceResponses(items, h.Currency))
}

func (h CatalogHandler) listProviderServices(w http.ResponseWriter, r *http.Request) {
	providerID, err := strconv.ParseInt(chi.URLParam(r, "providerID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid provider id")
		return
	}
	items, err := h.Repo.ListProviderServices(r.Context(), providerID, parseLimit(r, 100))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferingResponses(items, h.Currency))
}

func toServiceResponses(items []domain.Service, currency string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, s := range items {
		out = append(out, map[string]any{
			"id":          strconv.FormatInt(s.ID, 10),
			"name":        s.Name,
			"category":    s.Category,
			"basePrice":   s.BasePrice.Amount,
			"currency":    currency,
			"durationMin": s.DurationMin,
			"points":      s.Points,
		})
	}
	return out
}

func toOfferingResponses(items []domain.ProviderService, currency string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, ps := range items {
		out = append(out, toOfferingResponse(ps, currency))
	}
	return out
}

func toOfferingResponse(ps domain.ProviderService, currency string) map[string]any {
	return map[string]any{
		"id":           strconv.FormatInt(ps.ID, 10),
		"providerId":   strconv.FormatInt(ps.ProviderID, 10),
		"serviceId":    strconv.FormatInt(ps.ServiceID, 10),
		"name":         ps.ServiceName,
		"category":     ps.Category,
		"price":        ps.EffectivePrice(),
		"currency":     currency,
		"durationMin":  ps.DurationMin,
		"points":       ps.EffectivePoints(),
		"availability": ps.Availability,
	}
}

func parseLimit(r *http.Request, fallback int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
