package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/Feighth-arts/glam-sub000/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

// PointsHandler exposes the caller's loyalty balance and ledger history.
type PointsHandler struct {
	Repo repository.PointsRepository
}

func (h PointsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/points", h.balance)
	r.Get("/points/transactions", h.transactions)
}

func (h PointsHandler) balance(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	up, err := h.Repo.Balance(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"currentPoints":  up.CurrentPoints,
		"lifetimePoints": up.LifetimePoints,
		"tier":           string(up.Tier),
	})
}

func (h PointsHandler) transactions(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	items, err := h.Repo.ListTransactions(r.Context(), user.ID, parseLimit(r, 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, t := range items {
		out = append(out, map[string]any{
			"id":          strconv.FormatInt(t.ID, 10),
			"type":        string(t.Type),
			"points":      t.Points,
			"source":      string(t.Source),
			"referenceId": strconv.FormatInt(t.ReferenceID, 10),
			"description": t.Description,
			"createdAt":   t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
