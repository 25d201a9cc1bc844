package service

import (
	"errors"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
)

var (
	// ErrValidation wraps bad request input, rejected before any
	// persistence.
	ErrValidation = errors.New("invalid input")
	// ErrForbidden is a role or ownership mismatch.
	ErrForbidden = errors.New("forbidden")
	// ErrBookingNotCompleted is returned when a review targets a booking
	// that has not reached the completed state.
	ErrBookingNotCompleted = errors.New("booking is not completed")
	// ErrAmountMismatch is returned when an external payment confirmation
	// reports a different amount than the recorded intent.
	ErrAmountMismatch = errors.New("confirmed amount does not match payment")
)

// Actor is the verified identity an operation runs as. Handlers resolve
// it from the session token; services never read identity from anywhere
// else.
type Actor struct {
	ID   int64
	Role domain.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }
