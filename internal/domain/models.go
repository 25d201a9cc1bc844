package domain

import "time"

// Enumerations
const (
	RoleClient   UserRole = "client"
	RoleProvider UserRole = "provider"
	RoleAdmin    UserRole = "admin"

	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"

	TierBronze   Tier = "bronze"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"

	PaymentInitiated   PaymentStatus = "initiated"
	PaymentCompleted   PaymentStatus = "completed"
	PaymentFailed      PaymentStatus = "failed"
	PaymentDemoSuccess PaymentStatus = "demo_success"

	PointsEarned   PointsTransactionType = "earned"
	PointsRedeemed PointsTransactionType = "redeemed"
	PointsRefunded PointsTransactionType = "refunded"

	PointsSourceBooking  PointsSource = "booking"
	PointsSourceReview   PointsSource = "review"
	PointsSourceReferral PointsSource = "referral"

	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type UserRole string
type UserStatus string
type Tier string
type PaymentStatus string
type PointsTransactionType string
type PointsSource string
type NotificationType string

type Money struct {
	Amount   int64
	Currency string
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Role         UserRole
	Status       UserStatus
	IsGoogle     bool
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Service is a global catalog entry managed by admins. Providers opt in
// through ProviderService and may override price and points there.
type Service struct {
	ID          int64
	Name        string
	Category    string
	BasePrice   Money
	DurationMin int
	Points      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Availability is a provider's weekly schedule for one offering.
type Availability struct {
	Days  []string `json:"days"`
	Slots []string `json:"slots"`
}

// ProviderService joins a provider to a catalog service. A (provider,
// service) pair is unique. CustomPrice/CustomPoints of nil mean the
// catalog defaults apply.
type ProviderService struct {
	ID           int64
	ProviderID   int64
	ServiceID    int64
	ServiceName  string
	Category     string
	BasePrice    Money
	DurationMin  int
	Points       int
	CustomPrice  *int64
	CustomPoints *int
	Availability Availability
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// EffectivePrice resolves the provider override over the catalog base price.
func (ps ProviderService) EffectivePrice() int64 {
	if ps.CustomPrice != nil {
		return *ps.CustomPrice
	}
	return ps.BasePrice.Amount
}

// EffectivePoints resolves the provider override over the catalog points value.
func (ps ProviderService) EffectivePoints() int {
	if ps.CustomPoints != nil {
		return *ps.CustomPoints
	}
	return ps.Points
}

type Booking struct {
	ID              int64
	Code            string
	ClientID        int64
	ProviderID      int64
	ServiceID       int64
	ServiceName     string
	ScheduledAt     time.Time
	Location        string
	Notes           string
	Amount          Money
	Commission      Money
	ProviderEarning Money
	PointsEarned    int
	PointsRedeemed  int
	Status          BookingStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Payment is one-to-one with a booking. CheckoutRequestID is the external
// reference handed to the mobile-money network; Receipt is filled in on
// successful confirmation.
type Payment struct {
	ID                int64
	BookingID         int64
	Amount            Money
	Phone             string
	CheckoutRequestID string
	Receipt           *string
	Status            PaymentStatus
	Demo              bool
	FailureReason     string
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UserPoints is the loyalty ledger head for one client. CurrentPoints is
// the spendable balance; LifetimePoints never decreases and alone
// determines Tier.
type UserPoints struct {
	UserID         int64
	CurrentPoints  int
	LifetimePoints int
	Tier           Tier
	UpdatedAt      time.Time
}

// PointsTransaction is an append-only audit row. Points is negative for
// redemptions. (Source, ReferenceID, Type) is unique so award and redeem
// are exactly-once per originating event.
type PointsTransaction struct {
	ID          int64
	UserID      int64
	Type        PointsTransactionType
	Points      int
	Source      PointsSource
	ReferenceID int64
	Description string
	CreatedAt   time.Time
}

type Review struct {
	ID         int64
	BookingID  int64
	ClientID   int64
	ProviderID int64
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

// ProviderRating is the read-side aggregate over a provider's reviews.
type ProviderRating struct {
	ProviderID int64
	Average    float64
	Count      int
}

type Notification struct {
	ID        int64
	UserID    int64
	Title     string
	Message   string
	Type      NotificationType
	CreatedAt time.Time
	ReadAt    *time.Time
	DeletedAt *time.Time
}
