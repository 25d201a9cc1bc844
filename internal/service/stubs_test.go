package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubBookings struct {
	seq      int64
	bookings map[int64]*domain.Booking
}

func newStubBookings() *stubBookings {
	return &stubBookings{bookings: map[int64]*domain.Booking{}}
}

func (s *stubBookings) add(b domain.Booking) *domain.Booking {
	if b.ID == 0 {
		s.seq++
		b.ID = s.seq
	} else if b.ID > s.seq {
		s.seq = b.ID
	}
	if b.Code == "" {
		b.Code = fmt.Sprintf("BK-%d", b.ID)
	}
	s.bookings[b.ID] = &b
	return &b
}

func (s *stubBookings) Create(ctx context.Context, in repository.CreateBookingParams, after func(context.Context, pgx.Tx, *domain.Booking) error) (*domain.Booking, error) {
	s.seq++
	b := &domain.Booking{
		ID:              s.seq,
		Code:            fmt.Sprintf("BK-%d", s.seq),
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
	if after != nil {
		if err := after(ctx, nil, b); err != nil {
			s.seq--
			return nil, err
		}
	}
	s.bookings[b.ID] = b
	cp := *b
	return &cp, nil
}

func (s *stubBookings) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *stubBookings) UpdateStatus(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus, after func(context.Context, pgx.Tx, *domain.Booking) error) (*domain.Booking, error) {
	var prev domain.BookingStatus
	if cur, ok := s.bookings[id]; ok {
		prev = cur.Status
	}
	b, err := s.UpdateStatusWithTx(ctx, nil, id, from, to)
	if err != nil {
		return nil, err
	}
	if after != nil {
		if err := after(ctx, nil, b); err != nil {
			s.bookings[id].Status = prev
			return nil, err
		}
	}
	return b, nil
}

func (s *stubBookings) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id int64, from []domain.BookingStatus, to domain.BookingStatus) (*domain.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	allowed := false
	for _, f := range from {
		if b.Status == f {
			allowed = true
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	cp := *b
	return &cp, nil
}

func (s *stubBookings) ListByClient(ctx context.Context, clientID int64, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.ClientID == clientID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookings) ListByProvider(ctx context.Context, providerID int64, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookings) ListAll(ctx context.Context, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	return out, nil
}

type stubCatalog struct {
	offerings map[string]*domain.ProviderService
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{offerings: map[string]*domain.ProviderService{}}
}

func (s *stubCatalog) add(ps domain.ProviderService) {
	s.offerings[fmt.Sprintf("%d/%d", ps.ProviderID, ps.ServiceID)] = &ps
}

func (s *stubCatalog) GetProviderService(ctx context.Context, providerID, serviceID int64) (*domain.ProviderService, error) {
	ps, ok := s.offerings[fmt.Sprintf("%d/%d", providerID, serviceID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ps
	return &cp, nil
}

// stubLedger mirrors the real ledger's rules: balance-checked redemption,
// exactly-once entries per (source, reference, type), tier from lifetime.
type stubLedger struct {
	balances  map[int64]*domain.UserPoints
	entries   []repository.PointsEntryParams
	seen      map[string]bool
	redeemErr error
}

func newStubLedger() *stubLedger {
	return &stubLedger{balances: map[int64]*domain.UserPoints{}, seen: map[string]bool{}}
}

func (s *stubLedger) set(userID int64, current, lifetime int) {
	s.balances[userID] = &domain.UserPoints{
		UserID:         userID,
		CurrentPoints:  current,
		LifetimePoints: lifetime,
		Tier:           domain.TierFor(lifetime),
	}
}

func (s *stubLedger) get(userID int64) *domain.UserPoints {
	up, ok := s.balances[userID]
	if !ok {
		up = &domain.UserPoints{UserID: userID, Tier: domain.TierBronze}
		s.balances[userID] = up
	}
	return up
}

func (s *stubLedger) Balance(ctx context.Context, userID int64) (*domain.UserPoints, error) {
	cp := *s.get(userID)
	return &cp, nil
}

func (s *stubLedger) record(typ domain.PointsTransactionType, p repository.PointsEntryParams) error {
	key := fmt.Sprintf("%s/%d/%s", p.Source, p.ReferenceID, typ)
	if s.seen[key] {
		return repository.ErrDuplicateTransaction
	}
	s.seen[key] = true
	s.entries = append(s.entries, p)
	return nil
}

func (s *stubLedger) RedeemWithTx(ctx context.Context, tx pgx.Tx, p repository.PointsEntryParams) (*domain.UserPoints, error) {
	if s.redeemErr != nil {
		return nil, s.redeemErr
	}
	up := s.get(p.UserID)
	if p.Points > up.CurrentPoints {
		return nil, repository.ErrInsufficientPoints
	}
	if err := s.record(domain.PointsRedeemed, p); err != nil {
		return nil, err
	}
	up.CurrentPoints -= p.Points
	cp := *up
	return &cp, nil
}

func (s *stubLedger) AwardWithTx(ctx context.Context, tx pgx.Tx, p repository.PointsEntryParams) (*domain.UserPoints, error) {
	if err := s.record(domain.PointsEarned, p); err != nil {
		return nil, err
	}
	up := s.get(p.UserID)
	up.CurrentPoints += p.Points
	up.LifetimePoints += p.Points
	up.Tier = domain.TierFor(up.LifetimePoints)
	cp := *up
	return &cp, nil
}

func (s *stubLedger) RefundWithTx(ctx context.Context, tx pgx.Tx, p repository.PointsEntryParams) (*domain.UserPoints, error) {
	if err := s.record(domain.PointsRefunded, p); err != nil {
		return nil, err
	}
	up := s.get(p.UserID)
	up.CurrentPoints += p.Points
	cp := *up
	return &cp, nil
}

type stubNotifier struct {
	sent []repository.CreateNotificationInput
}

func (s *stubNotifier) Create(ctx context.Context, in repository.CreateNotificationInput) (*domain.Notification, error) {
	s.sent = append(s.sent, in)
	return &domain.Notification{ID: int64(len(s.sent)), UserID: in.UserID, Title: in.Title}, nil
}

type stubPayments struct {
	seq      int64
	payments map[string]*domain.Payment
}

func newStubPayments() *stubPayments {
	return &stubPayments{payments: map[string]*domain.Payment{}}
}

func (s *stubPayments) add(p domain.Payment) *domain.Payment {
	if p.ID == 0 {
		s.seq++
		p.ID = s.seq
	}
	if p.Status == "" {
		p.Status = domain.PaymentInitiated
	}
	s.payments[p.CheckoutRequestID] = &p
	return &p
}

func (s *stubPayments) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubPayments) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.Payment, error) {
	p, ok := s.payments[checkoutRequestID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubPayments) Reinitiate(ctx context.Context, bookingID int64, phone, checkoutRequestID string) (*domain.Payment, error) {
	p, err := s.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.PaymentCompleted || p.Status == domain.PaymentDemoSuccess {
		return nil, repository.ErrPaymentFinalized
	}
	delete(s.payments, p.CheckoutRequestID)
	p.Phone = phone
	p.CheckoutRequestID = checkoutRequestID
	p.Status = domain.PaymentInitiated
	p.FailureReason = ""
	s.payments[checkoutRequestID] = p
	cp := *p
	return &cp, nil
}

func (s *stubPayments) Complete(ctx context.Context, checkoutRequestID, receipt string, demo bool, after func(context.Context, pgx.Tx, *domain.Payment) error) (*domain.Payment, bool, error) {
	p, ok := s.payments[checkoutRequestID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if p.Status == domain.PaymentCompleted || p.Status == domain.PaymentDemoSuccess {
		cp := *p
		return &cp, false, nil
	}
	next := *p
	next.Status = domain.PaymentCompleted
	if demo {
		next.Status = domain.PaymentDemoSuccess
	}
	next.Receipt = &receipt
	next.Demo = demo
	if after != nil {
		if err := after(ctx, nil, &next); err != nil {
			return nil, false, err
		}
	}
	*p = next
	cp := next
	return &cp, true, nil
}

func (s *stubPayments) Fail(ctx context.Context, checkoutRequestID, reason string, after func(context.Context, pgx.Tx, *domain.Payment) error) (*domain.Payment, bool, error) {
	p, ok := s.payments[checkoutRequestID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if p.Status != domain.PaymentInitiated {
		cp := *p
		return &cp, false, nil
	}
	next := *p
	next.Status = domain.PaymentFailed
	next.FailureReason = reason
	if after != nil {
		if err := after(ctx, nil, &next); err != nil {
			return nil, false, err
		}
	}
	*p = next
	cp := next
	return &cp, true, nil
}

type stubReviews struct {
	reviews map[int64]*domain.Review
}

func newStubReviews() *stubReviews {
	return &stubReviews{reviews: map[int64]*domain.Review{}}
}

func (s *stubReviews) Create(ctx context.Context, p repository.CreateReviewParams, after func(context.Context, pgx.Tx, *domain.Review) error) (*domain.Review, error) {
	if _, ok := s.reviews[p.BookingID]; ok {
		return nil, repository.ErrDuplicateReview
	}
	rev := &domain.Review{
		ID:         int64(len(s.reviews) + 1),
		BookingID:  p.BookingID,
		ClientID:   p.ClientID,
		ProviderID: p.ProviderID,
		Rating:     p.Rating,
		Comment:    p.Comment,
	}
	if after != nil {
		if err := after(ctx, nil, rev); err != nil {
			return nil, err
		}
	}
	s.reviews[p.BookingID] = rev
	cp := *rev
	return &cp, nil
}

func (s *stubReviews) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Review, error) {
	rev, ok := s.reviews[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rev
	return &cp, nil
}

func (s *stubReviews) ListByProvider(ctx context.Context, providerID int64, limit int) ([]domain.Review, error) {
	var out []domain.Review
	for _, rev := range s.reviews {
		if rev.ProviderID == providerID {
			out = append(out, *rev)
		}
	}
	return out, nil
}

func (s *stubReviews) Rating(ctx context.Context, providerID int64) (*domain.ProviderRating, error) {
	var sum, n int
	for _, rev := range s.reviews {
		if rev.ProviderID == providerID {
			sum += rev.Rating
			n++
		}
	}
	rating := &domain.ProviderRating{ProviderID: providerID, Count: n}
	if n > 0 {
		rating.Average = float64(sum) / float64(n)
	}
	return rating, nil
}
