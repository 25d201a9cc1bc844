package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/events"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
)

// ReviewStore is the review persistence surface.
type ReviewStore interface {
	Create(ctx context.Context, p repository.CreateReviewParams, after func(context.Context, pgx.Tx, *domain.Review) error) (*domain.Review, error)
	ListByProvider(ctx context.Context, providerID int64, limit int) ([]domain.Review, error)
	Rating(ctx context.Context, providerID int64) (*domain.ProviderRating, error)
}

// ReviewService records exactly one review per completed booking and
// awards the configured review bonus points in the same transaction.
type ReviewService struct {
	Reviews     ReviewStore
	Bookings    BookingStore
	Ledger      PointsLedger
	BonusPoints int
	Events      events.Publisher
	Logger      *slog.Logger
}

type SubmitReviewInput struct {
	BookingID int64
	Rating    int
	Comment   string
}

func (s *ReviewService) Submit(ctx context.Context, actor Actor, in SubmitReviewInput) (*domain.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	b, err := s.Bookings.GetByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if b.ClientID != actor.ID {
		return nil, ErrForbidden
	}
	if b.Status != domain.BookingCompleted {
		return nil, ErrBookingNotCompleted
	}

	rev, err := s.Reviews.Create(ctx, repository.CreateReviewParams{
		BookingID:  b.ID,
		ClientID:   b.ClientID,
		ProviderID: b.ProviderID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}, func(ctx context.Context, tx pgx.Tx, rev *domain.Review) error {
		if s.BonusPoints == 0 {
			return nil
		}
		// Keyed by booking id, so the bonus cannot be earned twice even if
		// the one-review-per-booking constraint were ever relaxed.
		_, err := s.Ledger.AwardWithTx(ctx, tx, repository.PointsEntryParams{
			UserID:      b.ClientID,
			Points:      s.BonusPoints,
			Source:      domain.PointsSourceReview,
			ReferenceID: b.ID,
			Description: "Review bonus for booking " + b.Code,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.Events != nil {
		if err := s.Events.PublishJSON(ctx, events.ReviewCreated, map[string]any{
			"review_id":   rev.ID,
			"booking_id":  rev.BookingID,
			"provider_id": rev.ProviderID,
			"rating":      rev.Rating,
		}); err != nil {
			s.Logger.Warn("event publish failed", "key", events.ReviewCreated, "err", err)
		}
	}
	return rev, nil
}

func (s *ReviewService) ListByProvider(ctx context.Context, providerID int64, limit int) ([]domain.Review, error) {
	return s.Reviews.ListByProvider(ctx, providerID, limit)
}

func (s *ReviewService) Rating(ctx context.Context, providerID int64) (*domain.ProviderRating, error) {
	return s.Reviews.Rating(ctx, providerID)
}
