package repository

import (
	"context"
	"errors"

	"github.com/Feighth-arts/glam-sub000/internal/db"
	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateReview is returned when a booking already has a review.
var ErrDuplicateReview = errors.New("booking already reviewed")

type ReviewRepository struct {
	DB *db.Postgres
}

type CreateReviewParams struct {
	BookingID  int64
	ClientID   int64
	ProviderID int64
	Rating     int
	Comment    string
}

// Create inserts the review and runs after in the same transaction (the
// review bonus award). The reviews.booking_id unique constraint enforces
// one review per booking.
func (r ReviewRepository) Create(ctx context.Context, p CreateReviewParams, after func(context.Context, pgx.Tx, *domain.Review) error) (*domain.Review, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var rev domain.Review
	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (booking_id, client_id, provider_id, rating, comment, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
		RETURNING id, booking_id, client_id, provider_id, rating, comment, created_at
	`, p.BookingID, p.ClientID, p.ProviderID, p.Rating, p.Comment).Scan(
		&rev.ID, &rev.BookingID, &rev.ClientID, &rev.ProviderID, &rev.Rating, &rev.Comment, &rev.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}

	if after != nil {
		if err := after(ctx, tx, &rev); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r ReviewRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Review, error) {
	var rev domain.Review
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, booking_id, client_id, provider_id, rating, comment, created_at
		FROM reviews WHERE booking_id=$1
	`, bookingID).Scan(&rev.ID, &rev.BookingID, &rev.ClientID, &rev.ProviderID, &rev.Rating, &rev.Comment, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rev, nil
}

func (r ReviewRepository) ListByProvider(ctx context.Context, providerID int64, limit int) ([]domain.Review, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, booking_id, client_id, provider_id, rating, comment, created_at
		FROM reviews
		WHERE provider_id=$1
		ORDER BY id DESC
		LIMIT $2
	`, providerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Review
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(&rev.ID, &rev.BookingID, &rev.ClientID, &rev.ProviderID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, rev)
	}
	return items, rows.Err()
}

// Rating aggregates a provider's reviews.
func (r ReviewRepository) Rating(ctx context.Context, providerID int64) (*domain.ProviderRating, error) {
	var agg domain.ProviderRating
	agg.ProviderID = providerID
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews WHERE provider_id=$1
	`, providerID).Scan(&agg.Average, &agg.Count)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
