package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/events"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
)

func newPaymentService(payments *stubPayments, bookings *stubBookings, ledger *stubLedger) (*PaymentService, *stubNotifier) {
	notifier := &stubNotifier{}
	return &PaymentService{
		Payments:      payments,
		Bookings:      bookings,
		Ledger:        ledger,
		Notifications: notifier,
		Events:        events.NopPublisher{},
		Logger:        testLogger(),
	}, notifier
}

func TestPaymentService_ConfirmSuccessIsIdempotent(t *testing.T) {
	bookings := newStubBookings()
	b := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingPendingPayment})
	payments := newStubPayments()
	payments.add(domain.Payment{BookingID: b.ID, CheckoutRequestID: "ws_CO_1", Amount: domain.Money{Amount: 105000}})
	svc, _ := newPaymentService(payments, bookings, newStubLedger())

	p, err := svc.ConfirmSuccess(context.Background(), ConfirmInput{
		CheckoutRequestID: "ws_CO_1",
		Receipt:           "NLJ7RT61SV",
		Amount:            105000,
	})
	if err != nil {
		t.Fatalf("ConfirmSuccess: %v", err)
	}
	if p.Status != domain.PaymentCompleted {
		t.Fatalf("payment status = %s, want completed", p.Status)
	}
	if p.Receipt == nil || *p.Receipt != "NLJ7RT61SV" {
		t.Fatalf("receipt not recorded: %+v", p.Receipt)
	}
	got, _ := bookings.GetByID(context.Background(), b.ID)
	if got.Status != domain.BookingPaid {
		t.Fatalf("booking status = %s, want paid", got.Status)
	}

	// A redelivered callback must be a no-op success.
	p2, err := svc.ConfirmSuccess(context.Background(), ConfirmInput{
		CheckoutRequestID: "ws_CO_1",
		Receipt:           "NLJ7RT61SV",
		Amount:            105000,
	})
	if err != nil {
		t.Fatalf("repeat ConfirmSuccess: %v", err)
	}
	if p2.Status != domain.PaymentCompleted {
		t.Fatalf("repeat status = %s, want completed", p2.Status)
	}
	got, _ = bookings.GetByID(context.Background(), b.ID)
	if got.Status != domain.BookingPaid {
		t.Fatalf("booking status after repeat = %s, want paid", got.Status)
	}
}

func TestPaymentService_ConfirmRejectsAmountMismatch(t *testing.T) {
	bookings := newStubBookings()
	b := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingPendingPayment})
	payments := newStubPayments()
	payments.add(domain.Payment{BookingID: b.ID, CheckoutRequestID: "ws_CO_2", Amount: domain.Money{Amount: 105000}})
	svc, _ := newPaymentService(payments, bookings, newStubLedger())

	_, err := svc.ConfirmSuccess(context.Background(), ConfirmInput{
		CheckoutRequestID: "ws_CO_2",
		Receipt:           "XYZ",
		Amount:            99900,
	})
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("err = %v, want ErrAmountMismatch", err)
	}
	got, _ := bookings.GetByID(context.Background(), b.ID)
	if got.Status != domain.BookingPendingPayment {
		t.Fatalf("booking must stay pending_payment, got %s", got.Status)
	}
	p, _ := payments.GetByCheckoutID(context.Background(), "ws_CO_2")
	if p.Status != domain.PaymentInitiated {
		t.Fatalf("payment must stay initiated, got %s", p.Status)
	}
}

func TestPaymentService_ConfirmFailureCancelsAndRefunds(t *testing.T) {
	bookings := newStubBookings()
	b := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingPendingPayment, PointsRedeemed: 30})
	payments := newStubPayments()
	payments.add(domain.Payment{BookingID: b.ID, CheckoutRequestID: "ws_CO_3", Amount: domain.Money{Amount: 50000}})
	ledger := newStubLedger()
	ledger.set(1, 0, 300)
	svc, _ := newPaymentService(payments, bookings, ledger)

	p, err := svc.ConfirmFailure(context.Background(), "ws_CO_3", "Request cancelled by user")
	if err != nil {
		t.Fatalf("ConfirmFailure: %v", err)
	}
	if p.Status != domain.PaymentFailed || p.FailureReason == "" {
		t.Fatalf("payment = %s/%q, want failed with reason", p.Status, p.FailureReason)
	}
	got, _ := bookings.GetByID(context.Background(), b.ID)
	if got.Status != domain.BookingCancelled {
		t.Fatalf("booking status = %s, want cancelled", got.Status)
	}
	up, _ := ledger.Balance(context.Background(), 1)
	if up.CurrentPoints != 30 {
		t.Fatalf("redeemed points not refunded, balance = %d", up.CurrentPoints)
	}
}

func TestPaymentService_SimulateSuccessMarksDemo(t *testing.T) {
	bookings := newStubBookings()
	b := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingPendingPayment})
	payments := newStubPayments()
	payments.add(domain.Payment{BookingID: b.ID, CheckoutRequestID: "ws_CO_4", Amount: domain.Money{Amount: 50000}})
	svc, _ := newPaymentService(payments, bookings, newStubLedger())

	if _, err := svc.SimulateSuccess(context.Background(), Actor{ID: 9, Role: domain.RoleClient}, b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger simulate err = %v, want ErrForbidden", err)
	}

	p, err := svc.SimulateSuccess(context.Background(), Actor{ID: 1, Role: domain.RoleClient}, b.ID)
	if err != nil {
		t.Fatalf("SimulateSuccess: %v", err)
	}
	if p.Status != domain.PaymentDemoSuccess || !p.Demo {
		t.Fatalf("payment = %s demo=%v, want demo_success", p.Status, p.Demo)
	}
	got, _ := bookings.GetByID(context.Background(), b.ID)
	if got.Status != domain.BookingPaid {
		t.Fatalf("booking status = %s, want paid", got.Status)
	}
}

func TestPaymentService_ReinitiateOnlyWhilePending(t *testing.T) {
	bookings := newStubBookings()
	pending := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingPendingPayment})
	paid := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingPaid})
	payments := newStubPayments()
	payments.add(domain.Payment{BookingID: pending.ID, CheckoutRequestID: "ws_CO_5", Amount: domain.Money{Amount: 50000}})
	payments.add(domain.Payment{BookingID: paid.ID, CheckoutRequestID: "ws_CO_6", Amount: domain.Money{Amount: 50000}})
	svc, _ := newPaymentService(payments, bookings, newStubLedger())
	client := Actor{ID: 1, Role: domain.RoleClient}

	p, err := svc.Reinitiate(context.Background(), client, pending.ID, "254700000001")
	if err != nil {
		t.Fatalf("Reinitiate: %v", err)
	}
	if p.CheckoutRequestID == "ws_CO_5" {
		t.Fatalf("a fresh checkout reference must be issued")
	}
	if p.Phone != "254700000001" {
		t.Fatalf("phone = %q, want the new one", p.Phone)
	}

	if _, err := svc.Reinitiate(context.Background(), client, paid.ID, "254700000001"); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("reinitiate on paid booking err = %v, want ErrInvalidTransition", err)
	}
}
