package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/db"
	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ErrPaymentFinalized is returned when an intent re-attempt targets a
// payment that already completed.
var ErrPaymentFinalized = errors.New("payment already completed")

type PaymentRepository struct {
	DB *db.Postgres
}

func (r PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1`, bookingID)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r PaymentRepository) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.Payment, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE checkout_request_id=$1`, checkoutRequestID)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Reinitiate replaces the checkout reference and phone on a payment that
// has not completed yet. There is always at most one payment per booking;
// re-attempts reuse the row instead of inserting a second intent.
func (r PaymentRepository) Reinitiate(ctx context.Context, bookingID int64, phone, checkoutRequestID string) (*domain.Payment, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1 FOR UPDATE`, bookingID)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Status == domain.PaymentCompleted || p.Status == domain.PaymentDemoSuccess {
		return nil, ErrPaymentFinalized
	}

	row = tx.QueryRow(ctx, `
		UPDATE payments
		SET phone=$2, checkout_request_id=$3, status=$4, failure_reason='', updated_at=now()
		WHERE booking_id=$1
		RETURNING `+paymentColumns+`
	`, bookingID, phone, checkoutRequestID, domain.PaymentInitiated)
	p, err = scanPayment(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Complete marks the payment identified by its checkout reference as
// completed and runs after in the same transaction (driving the booking
// to paid). A payment that already completed is returned unchanged with
// updated=false, so at-least-once callbacks are harmless.
func (r PaymentRepository) Complete(ctx context.Context, checkoutRequestID, receipt string, demo bool, after func(context.Context, pgx.Tx, *domain.Payment) error) (*domain.Payment, bool, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	p, err := r.lockByCheckoutID(ctx, tx, checkoutRequestID)
	if err != nil {
		return nil, false, err
	}
	if p.Status == domain.PaymentCompleted || p.Status == domain.PaymentDemoSuccess {
		return p, false, nil
	}

	status := domain.PaymentCompleted
	if demo {
		status = domain.PaymentDemoSuccess
	}
	now := time.Now()
	row := tx.QueryRow(ctx, `
		UPDATE payments
		SET status=$2, receipt=$3, demo=$4, completed_at=$5, updated_at=now()
		WHERE checkout_request_id=$1
		RETURNING `+paymentColumns+`
	`, checkoutRequestID, status, nullableStr(receipt), demo, now)
	p, err = scanPayment(row)
	if err != nil {
		return nil, false, err
	}

	if after != nil {
		if err := after(ctx, tx, p); err != nil {
			return nil, false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Fail marks the payment failed and runs after in the same transaction
// (cancelling the booking). Already-finalized payments are left alone.
func (r PaymentRepository) Fail(ctx context.Context, checkoutRequestID, reason string, after func(context.Context, pgx.Tx, *domain.Payment) error) (*domain.Payment, bool, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	p, err := r.lockByCheckoutID(ctx, tx, checkoutRequestID)
	if err != nil {
		return nil, false, err
	}
	if p.Status != domain.PaymentInitiated {
		return p, false, nil
	}

	row := tx.QueryRow(ctx, `
		UPDATE payments
		SET status=$2, failure_reason=$3, updated_at=now()
		WHERE checkout_request_id=$1
		RETURNING `+paymentColumns+`
	`, checkoutRequestID, domain.PaymentFailed, reason)
	p, err = scanPayment(row)
	if err != nil {
		return nil, false, err
	}

	if after != nil {
		if err := after(ctx, tx, p); err != nil {
			return nil, false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (r PaymentRepository) lockByCheckoutID(ctx context.Context, tx pgx.Tx, checkoutRequestID string) (*domain.Payment, error) {
	row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE checkout_request_id=$1 FOR UPDATE`, checkoutRequestID)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

const paymentColumns = `id, booking_id, amount, phone, checkout_request_id, receipt, status, demo, failure_reason, completed_at, created_at, updated_at`

func scanPayment(row interface {
	Scan(dest ...any) error
}) (*domain.Payment, error) {
	var p domain.Payment
	var status string
	if err := row.Scan(
		&p.ID, &p.BookingID, &p.Amount.Amount, &p.Phone, &p.CheckoutRequestID, &p.Receipt,
		&status, &p.Demo, &p.FailureReason, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
