package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/server/authctx"
	"github.com/Feighth-arts/glam-sub000/internal/service"
	"github.com/go-chi/chi/v5"
)

type ReviewHandler struct {
	Service *service.ReviewService
}

func (h ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Post("/reviews", h.submit)
}

// RegisterPublicRoutes mounts read-only rating endpoints used by listings.
func (h ReviewHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/providers/{providerID}/reviews", h.listByProvider)
	r.Get("/providers/{providerID}/rating", h.rating)
}

func (h ReviewHandler) submit(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	var req struct {
		BookingID int64  `json:"bookingId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rev, err := h.Service.Submit(r.Context(), actorFrom(user), service.SubmitReviewInput{
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewResponse(*rev))
}

func (h ReviewHandler) listByProvider(w http.ResponseWriter, r *http.Request) {
	providerID, err := strconv.ParseInt(chi.URLParam(r, "providerID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid provider id")
		return
	}
	items, err := h.Service.ListByProvider(r.Context(), providerID, parseLimit(r, 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, rev := range items {
		out = append(out, toReviewResponse(rev))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h ReviewHandler) rating(w http.ResponseWriter, r *http.Request) {
	providerID, err := strconv.ParseInt(chi.URLParam(r, "providerID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid provider id")
		return
	}
	rating, err := h.Service.Rating(r.Context(), providerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"providerId": strconv.FormatInt(rating.ProviderID, 10),
		"average":    rating.Average,
		"count":      rating.Count,
	})
}

func toReviewResponse(rev domain.Review) map[string]any {
	return map[string]any{
		"id":         strconv.FormatInt(rev.ID, 10),
		"bookingId":  strconv.FormatInt(rev.BookingID, 10),
		"clientId":   strconv.FormatInt(rev.ClientID, 10),
		"providerId": strconv.FormatInt(rev.ProviderID, 10),
		"rating":     rev.Rating,
		"comment":    rev.Comment,
		"createdAt":  rev.CreatedAt.UTC().Format(time.RFC3339),
	}
}
