package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/Feighth-arts/glam-sub000/internal/service"
	"github.com/jackc/pgx/v5"
)

// webhookBookings holds a single booking and applies status transitions
// the way the real repository does, compare-and-set included.
type webhookBookings struct {
	booking domain.Booking
}

func (f *webhookBookings) Create(ctx context.Context, in repository.CreateBookingParams, after func(context.Context, pgx.Tx, *domain.Booking) error) (*domain.Booking, error) {
	return nil, fmt.Errorf("not supported")
}

func (f *webhookBookings) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	if id != f.booking.ID {
		return nil, repository.ErrNotFound
	}
	cp := f.booking
	return &cp, nil
}

func (f *webhookBookings) UpdateStatus(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus, after func(context.Context, pgx.Tx, *domain.Booking) error) (*domain.Booking, error) {
	b, err := f.UpdateStatusWithTx(ctx, nil, id, from, to)
	if err != nil {
		return nil, err
	}
	if after != nil {
		if err := after(ctx, nil, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (f *webhookBookings) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id int64, from []domain.BookingStatus, to domain.BookingStatus) (*domain.Booking, error) {
	if id != f.booking.ID {
		return nil, repository.ErrNotFound
	}
	ok := false
	for _, s := range from {
		if f.booking.Status == s {
			ok = true
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, f.booking.Status, to)
	}
	f.booking.Status = to
	cp := f.booking
	return &cp, nil
}

func (f *webhookBookings) ListByClient(ctx context.Context, clientID int64, limit int) ([]domain.Booking, error) {
	return nil, nil
}
func (f *webhookBookings) ListByProvider(ctx context.Context, providerID int64, limit int) ([]domain.Booking, error) {
	return nil, nil
}
func (f *webhookBookings) ListAll(ctx context.Context, limit int) ([]domain.Booking, error) {
	return nil, nil
}

type webhookPayments struct {
	payment domain.Payment
}

func (f *webhookPayments) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	cp := f.payment
	return &cp, nil
}

func (f *webhookPayments) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.Payment, error) {
	if checkoutRequestID != f.payment.CheckoutRequestID {
		return nil, repository.ErrNotFound
	}
	cp := f.payment
	return &cp, nil
}

func (f *webhookPayments) Reinitiate(ctx context.Context, bookingID int64, phone, checkoutRequestID string) (*domain.Payment, error) {
	return nil, fmt.Errorf("not supported")
}

func (f *webhookPayments) Complete(ctx context.Context, checkoutRequestID, receipt string, demo bool, after func(context.Context, pgx.Tx, *domain.Payment) error) (*domain.Payment, bool, error) {
	if checkoutRequestID != f.payment.CheckoutRequestID {
		return nil, false, repository.ErrNotFound
	}
	if f.payment.Status == domain.PaymentCompleted || f.payment.Status == domain.PaymentDemoSuccess {
		cp := f.payment
		return &cp, false, nil
	}
	next := f.payment
	next.Status = domain.PaymentCompleted
	next.Receipt = &receipt
	if after != nil {
		if err := after(ctx, nil, &next); err != nil {
			return nil, false, err
		}
	}
	f.payment = next
	cp := next
	return &cp, true, nil
}

func (f *webhookPayments) Fail(ctx context.Context, checkoutRequestID, reason string, after func(context.Context, pgx.Tx, *domain.Payment) error) (*domain.Payment, bool, error) {
	if checkoutRequestID != f.payment.CheckoutRequestID {
		return nil, false, repository.ErrNotFound
	}
	if f.payment.Status != domain.PaymentInitiated {
		cp := f.payment
		return &cp, false, nil
	}
	next := f.payment
	next.Status = domain.PaymentFailed
	next.FailureReason = reason
	if after != nil {
		if err := after(ctx, nil, &next); err != nil {
			return nil, false, err
		}
	}
	f.payment = next
	cp := next
	return &cp, true, nil
}

type webhookLedger struct {
	refunded int
}

func (f *webhookLedger) Balance(ctx context.Context, userID int64) (*domain.UserPoints, error) {
	return &domain.UserPoints{UserID: userID, Tier: domain.TierBronze}, nil
}
func (f *webhookLedger) RedeemWithTx(ctx context.Context, tx pgx.Tx, p repository.PointsEntryParams) (*domain.UserPoints, error) {
	return nil, fmt.Errorf("not supported")
}
func (f *webhookLedger) AwardWithTx(ctx context.Context, tx pgx.Tx, p repository.PointsEntryParams) (*domain.UserPoints, error) {
	return &domain.UserPoints{}, nil
}
func (f *webhookLedger) RefundWithTx(ctx context.Context, tx pgx.Tx, p repository.PointsEntryParams) (*domain.UserPoints, error) {
	f.refunded += p.Points
	return &domain.UserPoints{}, nil
}

func newWebhookHandler(bookings *webhookBookings, payments *webhookPayments, ledger *webhookLedger) PaymentHandler {
	svc := &service.PaymentService{
		Payments: payments,
		Bookings: bookings,
		Ledger:   ledger,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return PaymentHandler{Service: svc, Currency: "KES"}
}

func TestMpesaCallbackSuccess(t *testing.T) {
	bookings := &webhookBookings{booking: domain.Booking{ID: 7, ClientID: 1, ProviderID: 2, Status: domain.BookingPendingPayment}}
	payments := &webhookPayments{payment: domain.Payment{ID: 1, BookingID: 7, CheckoutRequestID: "ws_CO_77", Status: domain.PaymentInitiated, Amount: domain.Money{Amount: 105000}}}
	h := newWebhookHandler(bookings, payments, &webhookLedger{})

	body := `{"Body":{"stkCallback":{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_77","ResultCode":0,"ResultDesc":"The service request is processed successfully.","CallbackMetadata":{"Item":[{"Name":"Amount","Value":1050.00},{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},{"Name":"PhoneNumber","Value":254700000001}]}}}}`
	req := httptest.NewRequest(http.MethodPost, "/payments/mpesa/callback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.mpesaCallback(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if payments.payment.Status != domain.PaymentCompleted {
		t.Fatalf("payment status = %s, want completed", payments.payment.Status)
	}
	if payments.payment.Receipt == nil || *payments.payment.Receipt != "NLJ7RT61SV" {
		t.Fatalf("receipt not extracted from callback metadata")
	}
	if bookings.booking.Status != domain.BookingPaid {
		t.Fatalf("booking status = %s, want paid", bookings.booking.Status)
	}
}

func TestMpesaCallbackAmountMismatch(t *testing.T) {
	bookings := &webhookBookings{booking: domain.Booking{ID: 7, ClientID: 1, ProviderID: 2, Status: domain.BookingPendingPayment}}
	payments := &webhookPayments{payment: domain.Payment{ID: 1, BookingID: 7, CheckoutRequestID: "ws_CO_77", Status: domain.PaymentInitiated, Amount: domain.Money{Amount: 105000}}}
	h := newWebhookHandler(bookings, payments, &webhookLedger{})

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_77","ResultCode":0,"CallbackMetadata":{"Item":[{"Name":"Amount","Value":999.00},{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"}]}}}}`
	req := httptest.NewRequest(http.MethodPost, "/payments/mpesa/callback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.mpesaCallback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 on amount mismatch", rec.Code)
	}
	if bookings.booking.Status != domain.BookingPendingPayment {
		t.Fatalf("booking must stay pending_payment, got %s", bookings.booking.Status)
	}
}

func TestMpesaCallbackFailureCancelsBooking(t *testing.T) {
	bookings := &webhookBookings{booking: domain.Booking{ID: 7, ClientID: 1, ProviderID: 2, Status: domain.BookingPendingPayment, PointsRedeemed: 30, Code: "BK-7"}}
	payments := &webhookPayments{payment: domain.Payment{ID: 1, BookingID: 7, CheckoutRequestID: "ws_CO_77", Status: domain.PaymentInitiated, Amount: domain.Money{Amount: 105000}}}
	ledger := &webhookLedger{}
	h := newWebhookHandler(bookings, payments, ledger)

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_77","ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`
	req := httptest.NewRequest(http.MethodPost, "/payments/mpesa/callback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.mpesaCallback(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if payments.payment.Status != domain.PaymentFailed {
		t.Fatalf("payment status = %s, want failed", payments.payment.Status)
	}
	if bookings.booking.Status != domain.BookingCancelled {
		t.Fatalf("booking status = %s, want cancelled", bookings.booking.Status)
	}
	if ledger.refunded != 30 {
		t.Fatalf("refunded = %d, want 30", ledger.refunded)
	}
}

func TestMpesaCallbackRejectsGarbage(t *testing.T) {
	h := newWebhookHandler(&webhookBookings{}, &webhookPayments{}, &webhookLedger{})

	req := httptest.NewRequest(http.MethodPost, "/payments/mpesa/callback", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.mpesaCallback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/payments/mpesa/callback", strings.NewReader(`{"Body":{"stkCallback":{"ResultCode":0}}}`))
	rec = httptest.NewRecorder()
	h.mpesaCallback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 when CheckoutRequestID missing", rec.Code)
	}
}
