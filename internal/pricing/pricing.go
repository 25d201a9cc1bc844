// Package pricing computes the settlement split for a booking: points
// discount, platform commission and provider earning. It is pure
// computation with no I/O.
package pricing

import "errors"

const (
	// CommissionBps is the platform's cut of the final amount, in basis
	// points.
	CommissionBps = 1500
	// MaxDiscountBps caps the points discount relative to the base price.
	MaxDiscountBps = 3000
	// PointValue is the discount in minor currency units bought by one
	// point.
	PointValue = 100
)

var (
	ErrInvalidBasePrice = errors.New("base price must be positive")
	ErrNegativePoints   = errors.New("requested points must not be negative")
)

type Input struct {
	// BasePrice is the effective service price in minor currency units.
	BasePrice int64
	// RequestedPoints is how many points the client asked to redeem.
	RequestedPoints int
	// AvailablePoints is the client's current spendable balance.
	AvailablePoints int
	// ServicePoints is the flat points value of the service (catalog or
	// provider override).
	ServicePoints int
}

type Quote struct {
	BasePrice       int64
	PointsUsed      int
	Discount        int64
	FinalAmount     int64
	Commission      int64
	ProviderEarning int64
	PointsEarned    int
}

// Compute derives the settlement quote. The discount is capped at 30% of
// the base price no matter how many points are requested or held, one
// point redeeming for exactly one currency unit. Commission is rounded
// half-up once; the provider earning is the exact complement, so
// FinalAmount == Commission + ProviderEarning always holds.
func Compute(in Input) (Quote, error) {
	if in.BasePrice <= 0 {
		return Quote{}, ErrInvalidBasePrice
	}
	if in.RequestedPoints < 0 {
		return Quote{}, ErrNegativePoints
	}

	maxDiscount := in.BasePrice * MaxDiscountBps / 10000
	maxPoints := int(maxDiscount / PointValue)

	pointsUsed := in.RequestedPoints
	if pointsUsed > in.AvailablePoints {
		pointsUsed = in.AvailablePoints
	}
	if pointsUsed > maxPoints {
		pointsUsed = maxPoints
	}

	discount := int64(pointsUsed) * PointValue
	final := in.BasePrice - discount
	commission := (final*CommissionBps + 5000) / 10000

	return Quote{
		BasePrice:       in.BasePrice,
		PointsUsed:      pointsUsed,
		Discount:        discount,
		FinalAmount:     final,
		Commission:      commission,
		ProviderEarning: final - commission,
		PointsEarned:    in.ServicePoints,
	}, nil
}
