package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/server/authctx"
	"github.com/Feighth-arts/glam-sub000/internal/service"
	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	Service  *service.PaymentService
	Currency string
}

// RegisterWebhookRoutes mounts the unauthenticated mobile-money callback.
func (h PaymentHandler) RegisterWebhookRoutes(r chi.Router) {
	r.Post("/payments/mpesa/callback", h.mpesaCallback)
}

func (h PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/bookings/{id}/pay", h.reinitiate)
	r.Post("/bookings/{id}/pay/simulate", h.simulate)
	r.Get("/bookings/{id}/payment", h.get)
}

// stkCallbackEnvelope mirrors the Daraja STK push result payload.
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string `json:"Name"`
					Value any    `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

func (h PaymentHandler) mpesaCallback(w http.ResponseWriter, r *http.Request) {
	var env stkCallbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	cb := env.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		writeError(w, http.StatusBadRequest, "missing CheckoutRequestID")
		return
	}

	if cb.ResultCode != 0 {
		if _, err := h.Service.ConfirmFailure(r.Context(), cb.CheckoutRequestID, cb.ResultDesc); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"})
		return
	}

	var receipt string
	var amount int64
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			receipt, _ = item.Value.(string)
		case "Amount":
			// Daraja reports whole currency units as a JSON number.
			if v, ok := item.Value.(float64); ok {
				amount = int64(math.Round(v * 100))
			}
		}
	}
	if _, err := h.Service.ConfirmSuccess(r.Context(), service.ConfirmInput{
		CheckoutRequestID: cb.CheckoutRequestID,
		Receipt:           receipt,
		Amount:            amount,
	}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func (h PaymentHandler) reinitiate(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	p, err := h.Service.Reinitiate(r.Context(), actorFrom(user), id, req.Phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*p, h.Currency))
}

func (h PaymentHandler) simulate(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	p, err := h.Service.SimulateSuccess(r.Context(), actorFrom(user), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*p, h.Currency))
}

func (h PaymentHandler) get(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	p, err := h.Service.Get(r.Context(), actorFrom(user), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*p, h.Currency))
}

func toPaymentResponse(p domain.Payment, currency string) map[string]any {
	out := map[string]any{
		"id":                strconv.FormatInt(p.ID, 10),
		"bookingId":         strconv.FormatInt(p.BookingID, 10),
		"amount":            p.Amount.Amount,
		"currency":          currency,
		"phone":             p.Phone,
		"checkoutRequestId": p.CheckoutRequestID,
		"status":            string(p.Status),
		"demo":              p.Demo,
	}
	if p.Receipt != nil {
		out["receipt"] = *p.Receipt
	}
	if p.FailureReason != "" {
		out["failureReason"] = p.FailureReason
	}
	if p.CompletedAt != nil {
		out["completedAt"] = p.CompletedAt.UTC().Format(time.RFC3339)
	}
	return out
}
