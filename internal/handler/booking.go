package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/pricing"
	"github.com/Feighth-arts/glam-sub000/internal/server/authctx"
	"github.com/Feighth-arts/glam-sub000/internal/service"
	"github.com/go-chi/chi/v5"
)

type BookingHandler struct {
	Service  *service.BookingService
	Currency string
}

func (h BookingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/bookings/quote", h.quote)
	r.Post("/bookings", h.create)
	r.Get("/bookings", h.list)
	r.Get("/bookings/{id}", h.get)
	r.Post("/bookings/{id}/confirm", h.confirm)
	r.Post("/bookings/{id}/complete", h.complete)
	r.Post("/bookings/{id}/cancel", h.cancel)
}

func (h BookingHandler) quote(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	var req struct {
		ProviderID   int64 `json:"providerId"`
		ServiceID    int64 `json:"serviceId"`
		RedeemPoints int   `json:"redeemPoints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	q, err := h.Service.Quote(r.Context(), user.ID, service.QuoteInput{
		ProviderID:   req.ProviderID,
		ServiceID:    req.ServiceID,
		RedeemPoints: req.RedeemPoints,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(*q, h.Currency))
}

func (h BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	var req struct {
		ProviderID   int64     `json:"providerId"`
		ServiceID    int64     `json:"serviceId"`
		ScheduledAt  time.Time `json:"scheduledAt"`
		Location     string    `json:"location"`
		Notes        string    `json:"notes"`
		Phone        string    `json:"phone"`
		RedeemPoints int       `json:"redeemPoints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	b, err := h.Service.Create(r.Context(), user.ID, service.CreateBookingInput{
		ProviderID:   req.ProviderID,
		ServiceID:    req.ServiceID,
		ScheduledAt:  req.ScheduledAt,
		Location:     req.Location,
		Notes:        req.Notes,
		Phone:        req.Phone,
		RedeemPoints: req.RedeemPoints,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(*b, h.Currency))
}

func (h BookingHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	items, err := h.Service.List(r.Context(), actorFrom(user), parseLimit(r, 100))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, b := range items {
		out = append(out, toBookingResponse(b, h.Currency))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h BookingHandler) get(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Get)
}

func (h BookingHandler) confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Confirm)
}

func (h BookingHandler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Complete)
}

func (h BookingHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Cancel)
}

func (h BookingHandler) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, actor service.Actor, id int64) (*domain.Booking, error)) {
	user := authctx.FromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	b, err := op(r.Context(), actorFrom(user), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(*b, h.Currency))
}

func actorFrom(u *authctx.CurrentUser) service.Actor {
	return service.Actor{ID: u.ID, Role: u.Role}
}

func toBookingResponse(b domain.Booking, currency string) map[string]any {
	return map[string]any{
		"id":              strconv.FormatInt(b.ID, 10),
		"code":            b.Code,
		"clientId":        strconv.FormatInt(b.ClientID, 10),
		"providerId":      strconv.FormatInt(b.ProviderID, 10),
		"serviceId":       strconv.FormatInt(b.ServiceID, 10),
		"serviceName":     b.ServiceName,
		"scheduledAt":     b.ScheduledAt.UTC().Format(time.RFC3339),
		"location":        b.Location,
		"notes":           b.Notes,
		"amount":          b.Amount.Amount,
		"commission":      b.Commission.Amount,
		"providerEarning": b.ProviderEarning.Amount,
		"currency":        currency,
		"pointsEarned":    b.PointsEarned,
		"pointsRedeemed":  b.PointsRedeemed,
		"status":          string(b.Status),
		"createdAt":       b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toQuoteResponse(q pricing.Quote, currency string) map[string]any {
	return map[string]any{
		"basePrice":       q.BasePrice,
		"pointsUsed":      q.PointsUsed,
		"discount":        q.Discount,
		"finalAmount":     q.FinalAmount,
		"commission":      q.Commission,
		"providerEarning": q.ProviderEarning,
		"pointsEarned":    q.PointsEarned,
		"currency":        currency,
	}
}
