package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/events"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentStore is the payment-row persistence surface.
type PaymentStore interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.Payment, error)
	Reinitiate(ctx context.Context, bookingID int64, phone, checkoutRequestID string) (*domain.Payment, error)
	Complete(ctx context.Context, checkoutRequestID, receipt string, demo bool, after func(context.Context, pgx.Tx, *domain.Payment) error) (*domain.Payment, bool, error)
	Fail(ctx context.Context, checkoutRequestID, reason string, after func(context.Context, pgx.Tx, *domain.Payment) error) (*domain.Payment, bool, error)
}

// PaymentService bridges external payment confirmations into the booking
// lifecycle. Confirmations arrive at-least-once from the mobile-money
// network; a repeat for an already-completed payment is a no-op success,
// never a double credit.
type PaymentService struct {
	Payments      PaymentStore
	Bookings      BookingStore
	Ledger        PointsLedger
	Notifications Notifier
	Events        events.Publisher
	Logger        *slog.Logger
}

// Reinitiate issues a fresh checkout reference for a booking still
// awaiting payment. The single payment row is reused; a completed
// payment cannot be reinitiated.
func (s *PaymentService) Reinitiate(ctx context.Context, actor Actor, bookingID int64, phone string) (*domain.Payment, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && b.ClientID != actor.ID {
		return nil, ErrForbidden
	}
	if b.Status != domain.BookingPendingPayment {
		return nil, fmt.Errorf("%w: booking is %s", repository.ErrInvalidTransition, b.Status)
	}
	return s.Payments.Reinitiate(ctx, bookingID, phone, uuid.NewString())
}

// Get returns the payment row for a booking the actor may see.
func (s *PaymentService) Get(ctx context.Context, actor Actor, bookingID int64) (*domain.Payment, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && b.ClientID != actor.ID && b.ProviderID != actor.ID {
		return nil, ErrForbidden
	}
	return s.Payments.GetByBookingID(ctx, bookingID)
}

type ConfirmInput struct {
	CheckoutRequestID string
	Receipt           string
	// Amount is the externally reported amount in minor units; zero means
	// the callback did not carry one.
	Amount int64
}

// ConfirmSuccess finalizes a payment and drives its booking to paid, in
// one transaction. Safe to call repeatedly for the same checkout
// reference.
func (s *PaymentService) ConfirmSuccess(ctx context.Context, in ConfirmInput) (*domain.Payment, error) {
	return s.completeWith(ctx, in, false)
}

// SimulateSuccess is the manual confirmation entry point for
// environments without a live payment integration. It follows the same
// path as a real callback but marks the payment as a demo success.
func (s *PaymentService) SimulateSuccess(ctx context.Context, actor Actor, bookingID int64) (*domain.Payment, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && b.ClientID != actor.ID && b.ProviderID != actor.ID {
		return nil, ErrForbidden
	}
	p, err := s.Payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.completeWith(ctx, ConfirmInput{
		CheckoutRequestID: p.CheckoutRequestID,
		Receipt:           "DEMO-" + uuid.NewString()[:8],
	}, true)
}

// ConfirmFailure marks the payment failed and cancels the booking,
// restoring any points redeemed at creation.
func (s *PaymentService) ConfirmFailure(ctx context.Context, checkoutRequestID, reason string) (*domain.Payment, error) {
	p, updated, err := s.Payments.Fail(ctx, checkoutRequestID, reason,
		func(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
			b, err := s.Bookings.UpdateStatusWithTx(ctx, tx, p.BookingID,
				[]domain.BookingStatus{domain.BookingPendingPayment}, domain.BookingCancelled)
			if err != nil {
				return err
			}
			if b.PointsRedeemed == 0 {
				return nil
			}
			_, err = s.Ledger.RefundWithTx(ctx, tx, repository.PointsEntryParams{
				UserID:      b.ClientID,
				Points:      b.PointsRedeemed,
				Source:      domain.PointsSourceBooking,
				ReferenceID: b.ID,
				Description: "Refunded on failed payment for booking " + b.Code,
			})
			return err
		})
	if err != nil {
		return nil, err
	}
	if !updated {
		return p, nil
	}

	s.publish(ctx, events.PaymentFailed, map[string]any{
		"booking_id":          p.BookingID,
		"checkout_request_id": p.CheckoutRequestID,
		"reason":              reason,
	})
	return p, nil
}

func (s *PaymentService) completeWith(ctx context.Context, in ConfirmInput, demo bool) (*domain.Payment, error) {
	p, updated, err := s.Payments.Complete(ctx, in.CheckoutRequestID, in.Receipt, demo,
		func(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
			if in.Amount > 0 && in.Amount != p.Amount.Amount {
				return fmt.Errorf("%w: got %d, want %d", ErrAmountMismatch, in.Amount, p.Amount.Amount)
			}
			_, err := s.Bookings.UpdateStatusWithTx(ctx, tx, p.BookingID,
				[]domain.BookingStatus{domain.BookingPendingPayment}, domain.BookingPaid)
			return err
		})
	if err != nil {
		return nil, err
	}
	if !updated {
		// Repeat delivery of a confirmation we already processed.
		return p, nil
	}

	s.publish(ctx, events.PaymentConfirmed, map[string]any{
		"booking_id":          p.BookingID,
		"checkout_request_id": p.CheckoutRequestID,
		"receipt":             in.Receipt,
		"amount":              p.Amount.Amount,
		"demo":                demo,
	})
	if b, err := s.Bookings.GetByID(ctx, p.BookingID); err == nil {
		s.notify(ctx, b.ProviderID, "Payment received",
			fmt.Sprintf("Booking %s has been paid", b.Code), domain.NotificationInfo)
	}
	return p, nil
}

func (s *PaymentService) publish(ctx context.Context, key string, payload map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishJSON(ctx, key, payload); err != nil {
		s.Logger.Warn("event publish failed", "key", key, "err", err)
	}
}

func (s *PaymentService) notify(ctx context.Context, userID int64, title, message string, typ domain.NotificationType) {
	if s.Notifications == nil {
		return
	}
	if _, err := s.Notifications.Create(ctx, repository.CreateNotificationInput{
		UserID: userID, Title: title, Message: message, Type: typ,
	}); err != nil {
		s.Logger.Warn("notification write failed", "user", userID, "err", err)
	}
}
