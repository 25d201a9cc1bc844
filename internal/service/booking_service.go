package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/events"
	"github.com/Feighth-arts/glam-sub000/internal/pricing"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookingStore is the persistence surface the state machine drives.
type BookingStore interface {
	Create(ctx context.Context, in repository.CreateBookingParams, after func(context.Context, pgx.Tx, *domain.Booking) error) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus, after func(context.Context, pgx.Tx, *domain.Booking) error) (*domain.Booking, error)
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id int64, from []domain.BookingStatus, to domain.BookingStatus) (*domain.Booking, error)
	ListByClient(ctx context.Context, clientID int64, limit int) ([]domain.Booking, error)
	ListByProvider(ctx context.Context, providerID int64, limit int) ([]domain.Booking, error)
	ListAll(ctx context.Context, limit int) ([]domain.Booking, error)
}

// CatalogStore resolves a provider's customized offering of a service.
type CatalogStore interface {
	GetProviderService(ctx context.Context, providerID, serviceID int64) (*domain.ProviderService, error)
}

// PointsLedger is the loyalty ledger as seen by the state machine. The
// WithTx methods join the caller's transaction so a booking write and its
// points mutation commit or fail together.
type PointsLedger interface {
	Balance(ctx context.Context, userID int64) (*domain.UserPoints, error)
	RedeemWithTx(ctx context.Context, tx pgx.Tx, p repository.PointsEntryParams) (*domain.UserPoints, error)
	AwardWithTx(ctx context.Context, tx pgx.Tx, p repository.PointsEntryParams) (*domain.UserPoints, error)
	RefundWithTx(ctx context.Context, tx pgx.Tx, p repository.PointsEntryParams) (*domain.UserPoints, error)
}

// Notifier persists in-app notifications. Failures are non-fatal.
type Notifier interface {
	Create(ctx context.Context, in repository.CreateNotificationInput) (*domain.Notification, error)
}

// BookingService owns the booking lifecycle: creation with an atomic
// points redemption, the paid/confirmed/completed transitions, and
// cancellation with a points refund.
type BookingService struct {
	Bookings      BookingStore
	Catalog       CatalogStore
	Ledger        PointsLedger
	Notifications Notifier
	Events        events.Publisher
	Logger        *slog.Logger
}

type QuoteInput struct {
	ProviderID   int64
	ServiceID    int64
	RedeemPoints int
}

// Quote prices a prospective booking without side effects.
func (s *BookingService) Quote(ctx context.Context, clientID int64, in QuoteInput) (*pricing.Quote, error) {
	ps, err := s.Catalog.GetProviderService(ctx, in.ProviderID, in.ServiceID)
	if err != nil {
		return nil, err
	}
	available := 0
	if in.RedeemPoints > 0 {
		bal, err := s.Ledger.Balance(ctx, clientID)
		if err != nil {
			return nil, err
		}
		available = bal.CurrentPoints
	}
	q, err := pricing.Compute(pricing.Input{
		BasePrice:       ps.EffectivePrice(),
		RequestedPoints: in.RedeemPoints,
		AvailablePoints: available,
		ServicePoints:   ps.EffectivePoints(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	return &q, nil
}

type CreateBookingInput struct {
	ProviderID   int64
	ServiceID    int64
	ScheduledAt  time.Time
	Location     string
	Notes        string
	Phone        string
	RedeemPoints int
}

// Create books a provider's service for the client. The booking row, its
// payment intent and the points redemption are one transaction: a client
// whose balance was drained by a concurrent booking gets
// ErrInsufficientPoints and no rows at all.
func (s *BookingService) Create(ctx context.Context, clientID int64, in CreateBookingInput) (*domain.Booking, error) {
	if in.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled date is required", ErrValidation)
	}
	if in.RedeemPoints < 0 {
		return nil, fmt.Errorf("%w: redeem points must not be negative", ErrValidation)
	}

	ps, err := s.Catalog.GetProviderService(ctx, in.ProviderID, in.ServiceID)
	if err != nil {
		return nil, err
	}

	available := 0
	if in.RedeemPoints > 0 {
		bal, err := s.Ledger.Balance(ctx, clientID)
		if err != nil {
			return nil, err
		}
		if in.RedeemPoints > bal.CurrentPoints {
			return nil, repository.ErrInsufficientPoints
		}
		available = bal.CurrentPoints
	}

	q, err := pricing.Compute(pricing.Input{
		BasePrice:       ps.EffectivePrice(),
		RequestedPoints: in.RedeemPoints,
		AvailablePoints: available,
		ServicePoints:   ps.EffectivePoints(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	b, err := s.Bookings.Create(ctx, repository.CreateBookingParams{
		ClientID:          clientID,
		ProviderID:        in.ProviderID,
		ServiceID:         in.ServiceID,
		ScheduledAt:       in.ScheduledAt,
		Location:          in.Location,
		Notes:             in.Notes,
		Amount:            q.FinalAmount,
		Commission:        q.Commission,
		ProviderEarning:   q.ProviderEarning,
		PointsEarned:      q.PointsEarned,
		PointsRedeemed:    q.PointsUsed,
		Phone:             in.Phone,
		CheckoutRequestID: uuid.NewString(),
	}, func(ctx context.Context, tx pgx.Tx, b *domain.Booking) error {
		if q.PointsUsed == 0 {
			return nil
		}
		_, err := s.Ledger.RedeemWithTx(ctx, tx, repository.PointsEntryParams{
			UserID:      clientID,
			Points:      q.PointsUsed,
			Source:      domain.PointsSourceBooking,
			ReferenceID: b.ID,
			Description: "Redeemed on booking " + b.Code,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	b.ServiceName = ps.ServiceName

	s.publish(ctx, events.BookingCreated, map[string]any{
		"booking_id":  b.ID,
		"code":        b.Code,
		"client_id":   b.ClientID,
		"provider_id": b.ProviderID,
		"amount":      b.Amount.Amount,
	})
	s.notify(ctx, b.ProviderID, "New booking",
		fmt.Sprintf("Booking %s for %s is awaiting payment", b.Code, b.ServiceName), domain.NotificationInfo)
	return b, nil
}

// Confirm moves a paid booking to confirmed. Only the assigned provider
// or an admin may do this.
func (s *BookingService) Confirm(ctx context.Context, actor Actor, bookingID int64) (*domain.Booking, error) {
	if err := s.guardProvider(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	b, err := s.Bookings.UpdateStatus(ctx, bookingID, []domain.BookingStatus{domain.BookingPaid}, domain.BookingConfirmed, nil)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, b.ClientID, "Booking confirmed",
		fmt.Sprintf("Your booking %s has been confirmed", b.Code), domain.NotificationInfo)
	return b, nil
}

// Complete finishes a paid or confirmed booking and awards the service's
// points to the client in the same transaction. The compare-and-set on
// the status row means completed can only ever be entered once; the
// ledger's uniqueness on (source, reference, type) backs that up.
func (s *BookingService) Complete(ctx context.Context, actor Actor, bookingID int64) (*domain.Booking, error) {
	if err := s.guardProvider(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	b, err := s.Bookings.UpdateStatus(ctx, bookingID,
		[]domain.BookingStatus{domain.BookingPaid, domain.BookingConfirmed}, domain.BookingCompleted,
		func(ctx context.Context, tx pgx.Tx, b *domain.Booking) error {
			if b.PointsEarned == 0 {
				return nil
			}
			_, err := s.Ledger.AwardWithTx(ctx, tx, repository.PointsEntryParams{
				UserID:      b.ClientID,
				Points:      b.PointsEarned,
				Source:      domain.PointsSourceBooking,
				ReferenceID: b.ID,
				Description: "Earned on booking " + b.Code,
			})
			return err
		})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingCompleted, map[string]any{
		"booking_id":    b.ID,
		"client_id":     b.ClientID,
		"provider_id":   b.ProviderID,
		"points_earned": b.PointsEarned,
	})
	s.notify(ctx, b.ClientID, "Booking completed",
		fmt.Sprintf("Booking %s completed, you earned %d points", b.Code, b.PointsEarned), domain.NotificationInfo)
	return b, nil
}

// Cancel ends a booking from any non-terminal state. Points redeemed at
// creation are restored to the client's spendable balance; lifetime
// points and tier are unaffected.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, bookingID int64) (*domain.Booking, error) {
	existing, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleClient:
		if existing.ClientID != actor.ID {
			return nil, ErrForbidden
		}
	case domain.RoleProvider:
		if existing.ProviderID != actor.ID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	b, err := s.Bookings.UpdateStatus(ctx, bookingID,
		[]domain.BookingStatus{domain.BookingPendingPayment, domain.BookingPaid, domain.BookingConfirmed}, domain.BookingCancelled,
		func(ctx context.Context, tx pgx.Tx, b *domain.Booking) error {
			if b.PointsRedeemed == 0 {
				return nil
			}
			_, err := s.Ledger.RefundWithTx(ctx, tx, repository.PointsEntryParams{
				UserID:      b.ClientID,
				Points:      b.PointsRedeemed,
				Source:      domain.PointsSourceBooking,
				ReferenceID: b.ID,
				Description: "Refunded on cancellation of booking " + b.Code,
			})
			return err
		})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingCancelled, map[string]any{
		"booking_id":  b.ID,
		"client_id":   b.ClientID,
		"provider_id": b.ProviderID,
	})
	counterparty := b.ProviderID
	if actor.ID == b.ProviderID {
		counterparty = b.ClientID
	}
	s.notify(ctx, counterparty, "Booking cancelled",
		fmt.Sprintf("Booking %s was cancelled", b.Code), domain.NotificationWarning)
	return b, nil
}

// Get fetches one booking, visible only to its client, its provider, or
// an admin.
func (s *BookingService) Get(ctx context.Context, actor Actor, bookingID int64) (*domain.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && b.ClientID != actor.ID && b.ProviderID != actor.ID {
		return nil, ErrForbidden
	}
	return b, nil
}

// List returns bookings scoped by the actor's role.
func (s *BookingService) List(ctx context.Context, actor Actor, limit int) ([]domain.Booking, error) {
	switch actor.Role {
	case domain.RoleClient:
		return s.Bookings.ListByClient(ctx, actor.ID, limit)
	case domain.RoleProvider:
		return s.Bookings.ListByProvider(ctx, actor.ID, limit)
	case domain.RoleAdmin:
		return s.Bookings.ListAll(ctx, limit)
	default:
		return nil, ErrForbidden
	}
}

func (s *BookingService) guardProvider(ctx context.Context, actor Actor, bookingID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != domain.RoleProvider {
		return ErrForbidden
	}
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.ProviderID != actor.ID {
		return ErrForbidden
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, key string, payload map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishJSON(ctx, key, payload); err != nil {
		s.Logger.Warn("event publish failed", "key", key, "err", err)
	}
}

func (s *BookingService) notify(ctx context.Context, userID int64, title, message string, typ domain.NotificationType) {
	if s.Notifications == nil {
		return
	}
	if _, err := s.Notifications.Create(ctx, repository.CreateNotificationInput{
		UserID: userID, Title: title, Message: message, Type: typ,
	}); err != nil {
		s.Logger.Warn("notification write failed", "user", userID, "err", err)
	}
}
