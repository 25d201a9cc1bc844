package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/events"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
)

func newReviewService(reviews *stubReviews, bookings *stubBookings, ledger *stubLedger, bonus int) *ReviewService {
	return &ReviewService{
		Reviews:     reviews,
		Bookings:    bookings,
		Ledger:      ledger,
		BonusPoints: bonus,
		Events:      events.NopPublisher{},
		Logger:      testLogger(),
	}
}

func TestReviewService_SubmitGuards(t *testing.T) {
	bookings := newStubBookings()
	completed := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingCompleted})
	paid := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingPaid})
	svc := newReviewService(newStubReviews(), bookings, newStubLedger(), 10)
	client := Actor{ID: 1, Role: domain.RoleClient}

	if _, err := svc.Submit(context.Background(), client, SubmitReviewInput{BookingID: completed.ID, Rating: 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("rating 0 err = %v, want ErrValidation", err)
	}
	if _, err := svc.Submit(context.Background(), client, SubmitReviewInput{BookingID: completed.ID, Rating: 6}); !errors.Is(err, ErrValidation) {
		t.Fatalf("rating 6 err = %v, want ErrValidation", err)
	}
	if _, err := svc.Submit(context.Background(), Actor{ID: 9, Role: domain.RoleClient}, SubmitReviewInput{BookingID: completed.ID, Rating: 5}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign client err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Submit(context.Background(), client, SubmitReviewInput{BookingID: paid.ID, Rating: 5}); !errors.Is(err, ErrBookingNotCompleted) {
		t.Fatalf("paid booking err = %v, want ErrBookingNotCompleted", err)
	}
	if _, err := svc.Submit(context.Background(), client, SubmitReviewInput{BookingID: 999, Rating: 5}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing booking err = %v, want ErrNotFound", err)
	}
}

func TestReviewService_SubmitAwardsBonusOnce(t *testing.T) {
	bookings := newStubBookings()
	b := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingCompleted})
	reviews := newStubReviews()
	ledger := newStubLedger()
	ledger.set(1, 40, 400)
	svc := newReviewService(reviews, bookings, ledger, 10)
	client := Actor{ID: 1, Role: domain.RoleClient}

	rev, err := svc.Submit(context.Background(), client, SubmitReviewInput{BookingID: b.ID, Rating: 5, Comment: "great braids"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rev.ProviderID != 2 || rev.Rating != 5 {
		t.Fatalf("review = %+v", rev)
	}
	up, _ := ledger.Balance(context.Background(), 1)
	if up.CurrentPoints != 50 || up.LifetimePoints != 410 {
		t.Fatalf("balance = %d/%d, want 50/410 after bonus", up.CurrentPoints, up.LifetimePoints)
	}

	if _, err := svc.Submit(context.Background(), client, SubmitReviewInput{BookingID: b.ID, Rating: 4}); !errors.Is(err, repository.ErrDuplicateReview) {
		t.Fatalf("second review err = %v, want ErrDuplicateReview", err)
	}
	up, _ = ledger.Balance(context.Background(), 1)
	if up.LifetimePoints != 410 {
		t.Fatalf("bonus must not be granted twice, lifetime = %d", up.LifetimePoints)
	}
}

func TestReviewService_RatingAggregates(t *testing.T) {
	bookings := newStubBookings()
	b1 := bookings.add(domain.Booking{ClientID: 1, ProviderID: 2, Status: domain.BookingCompleted})
	b2 := bookings.add(domain.Booking{ClientID: 3, ProviderID: 2, Status: domain.BookingCompleted})
	reviews := newStubReviews()
	svc := newReviewService(reviews, bookings, newStubLedger(), 0)

	if _, err := svc.Submit(context.Background(), Actor{ID: 1, Role: domain.RoleClient}, SubmitReviewInput{BookingID: b1.ID, Rating: 5}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), Actor{ID: 3, Role: domain.RoleClient}, SubmitReviewInput{BookingID: b2.ID, Rating: 4}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rating, err := svc.Rating(context.Background(), 2)
	if err != nil {
		t.Fatalf("Rating: %v", err)
	}
	if rating.Count != 2 || rating.Average != 4.5 {
		t.Fatalf("rating = %+v, want count 2 average 4.5", rating)
	}
}
