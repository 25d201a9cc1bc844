package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/Feighth-arts/glam-sub000/internal/service"
)

type apiError struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
}

type apiResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if status >= 400 {
		writeRawJSON(w, status, apiResponse{
			Status:  "error",
			Message: "",
			Data:    payload,
			Error: &apiError{
				Code:   status,
				Status: http.StatusText(status),
			},
		})
		return
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "ok",
		Message: "",
		Data:    payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Data:    nil,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
		},
	})
}

func writeErrorWithErr(w http.ResponseWriter, status int, message string, err error) {
	if err == nil {
		writeError(w, status, message)
		return
	}
	if message == "" {
		writeError(w, status, err.Error())
		return
	}
	writeError(w, status, message+": "+err.Error())
}

// writeServiceError translates service and repository sentinel errors to
// HTTP statuses; anything unrecognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrInsufficientPoints):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, repository.ErrDuplicateTransaction),
		errors.Is(err, repository.ErrDuplicateReview),
		errors.Is(err, repository.ErrPaymentFinalized),
		errors.Is(err, service.ErrBookingNotCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAmountMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
