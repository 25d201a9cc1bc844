package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/db"
	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ErrInvalidTransition is returned when a booking is not in a state the
// requested transition departs from.
var ErrInvalidTransition = errors.New("invalid booking status transition")

type BookingRepository struct {
	DB *db.Postgres
}

type CreateBookingParams struct {
	ClientID          int64
	ProviderID        int64
	ServiceID         int64
	ScheduledAt       time.Time
	Location          string
	Notes             string
	Amount            int64
	Commission        int64
	ProviderEarning   int64
	PointsEarned      int
	PointsRedeemed    int
	Phone             string
	CheckoutRequestID string
}

// Create inserts the booking in pending_payment together with its payment
// intent row, then runs after inside the same transaction. The booking,
// the payment and whatever after writes (the points redemption) commit or
// roll back as one unit.
func (r BookingRepository) Create(ctx context.Context, in CreateBookingParams, after func(context.Context, pgx.Tx, *domain.Booking) error) (*domain.Booking, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	code := fmt.Sprintf("BK-%d", time.Now().UnixNano()/1e6)
	row := tx.QueryRow(ctx, `
		INSERT INTO bookings
		(code, client_id, provider_id, service_id, scheduled_at, location, notes,
		 amount, commission, provider_earning, points_earned, points_redeemed, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now(), now())
		RETURNING id, created_at, updated_at
	`, code, in.ClientID, in.ProviderID, in.ServiceID, in.ScheduledAt, in.Location, in.Notes,
		in.Amount, in.Commission, in.ProviderEarning, in.PointsEarned, in.PointsRedeemed, domain.BookingPendingPayment)

	b := domain.Booking{
		Code:            code,
		ClientID:        in.ClientID,
		ProviderID:      in.ProviderID,
		ServiceID:       in.ServiceID,
		ScheduledAt:     in.ScheduledAt,
		Location:        in.Location,
		Notes:           in.Notes,
		Amount:          domain.Money{Amount: in.Amount},
		Commission:      domain.Money{Amount: in.Commission},
		ProviderEarning: domain.Money{Amount: in.ProviderEarning},
		PointsEarned:    in.PointsEarned,
		PointsRedeemed:  in.PointsRedeemed,
		Status:          domain.BookingPendingPayment,
	}
	if err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (booking_id, amount, phone, checkout_request_id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5, now(), now())
	`, b.ID, in.Amount, in.Phone, in.CheckoutRequestID, domain.PaymentInitiated)
	if err != nil {
		return nil, err
	}

	if after != nil {
		if err := after(ctx, tx, &b); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateStatus moves a booking from one of the from states into to, as a
// single compare-and-set. after runs in the same transaction with the
// updated row, so a completion award commits atomically with the status
// change. Returns ErrInvalidTransition when the booking exists but is not
// in an accepted from state; a terminal state can therefore never be
// entered, or left, twice.
func (r BookingRepository) UpdateStatus(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus, after func(context.Context, pgx.Tx, *domain.Booking) error) (*domain.Booking, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	b, err := r.UpdateStatusWithTx(ctx, tx, id, from, to)
	if err != nil {
		return nil, err
	}
	if after != nil {
		if err := after(ctx, tx, b); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateStatusWithTx is the compare-and-set inside an existing
// transaction.
func (r BookingRepository) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id int64, from []domain.BookingStatus, to domain.BookingStatus) (*domain.Booking, error) {
	states := make([]string, 0, len(from))
	for _, s := range from {
		states = append(states, string(s))
	}
	row := tx.QueryRow(ctx, `
		UPDATE bookings SET status=$3, updated_at=now()
		WHERE id=$1 AND status = ANY($2)
		RETURNING `+bookingColumns+`
	`, id, states, to)
	b, err := scanBooking(row)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Distinguish a missing booking from an illegal transition.
	var current string
	if err := tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id=$1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
}

func (r BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+bookingSelectColumns+` FROM bookings b JOIN services s ON s.id=b.service_id WHERE b.id=$1`, id)
	b, err := scanBookingWithName(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r BookingRepository) ListByClient(ctx context.Context, clientID int64, limit int) ([]domain.Booking, error) {
	return r.list(ctx, `b.client_id=$1`, clientID, limit)
}

func (r BookingRepository) ListByProvider(ctx context.Context, providerID int64, limit int) ([]domain.Booking, error) {
	return r.list(ctx, `b.provider_id=$1`, providerID, limit)
}

func (r BookingRepository) ListAll(ctx context.Context, limit int) ([]domain.Booking, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+bookingSelectColumns+`
		FROM bookings b JOIN services s ON s.id=b.service_id
		ORDER BY b.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListCompletedByProvider returns settlement rows for a provider's
// earnings statement, oldest first. from/to bound scheduled_at when set.
func (r BookingRepository) ListCompletedByProvider(ctx context.Context, providerID int64, from, to *time.Time, limit int) ([]domain.Booking, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+bookingSelectColumns+`
		FROM bookings b JOIN services s ON s.id=b.service_id
		WHERE b.provider_id=$1 AND b.status=$2
		  AND ($3::timestamptz IS NULL OR b.scheduled_at >= $3)
		  AND ($4::timestamptz IS NULL OR b.scheduled_at < $4)
		ORDER BY b.id
		LIMIT $5
	`, providerID, domain.BookingCompleted, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r BookingRepository) list(ctx context.Context, where string, arg any, limit int) ([]domain.Booking, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+bookingSelectColumns+`
		FROM bookings b JOIN services s ON s.id=b.service_id
		WHERE `+where+`
		ORDER BY b.id DESC
		LIMIT $2
	`, arg, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

const bookingColumns = `id, code, client_id, provider_id, service_id, scheduled_at, location, notes,
	amount, commission, provider_earning, points_earned, points_redeemed, status, created_at, updated_at`

const bookingSelectColumns = `b.id, b.code, b.client_id, b.provider_id, b.service_id, s.name, b.scheduled_at, b.location, b.notes,
	b.amount, b.commission, b.provider_earning, b.points_earned, b.points_redeemed, b.status, b.created_at, b.updated_at`

func scanBooking(row interface {
	Scan(dest ...any) error
}) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	if err := row.Scan(
		&b.ID, &b.Code, &b.ClientID, &b.ProviderID, &b.ServiceID, &b.ScheduledAt, &b.Location, &b.Notes,
		&b.Amount.Amount, &b.Commission.Amount, &b.ProviderEarning.Amount, &b.PointsEarned, &b.PointsRedeemed,
		&status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}

func scanBookingWithName(row interface {
	Scan(dest ...any) error
}) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	if err := row.Scan(
		&b.ID, &b.Code, &b.ClientID, &b.ProviderID, &b.ServiceID, &b.ServiceName, &b.ScheduledAt, &b.Location, &b.Notes,
		&b.Amount.Amount, &b.Commission.Amount, &b.ProviderEarning.Amount, &b.PointsEarned, &b.PointsRedeemed,
		&status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var items []domain.Booking
	for rows.Next() {
		b, err := scanBookingWithName(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}
