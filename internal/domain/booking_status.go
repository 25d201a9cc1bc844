package domain

// BookingStatus is the single closed enumeration of booking lifecycle
// states. Transitions are validated here, never by callers comparing
// strings.
type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "pending_payment"
	BookingPaid           BookingStatus = "paid"
	BookingConfirmed      BookingStatus = "confirmed"
	BookingCompleted      BookingStatus = "completed"
	BookingCancelled      BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPendingPayment: {BookingPaid, BookingCancelled},
	BookingPaid:           {BookingConfirmed, BookingCompleted, BookingCancelled},
	BookingConfirmed:      {BookingCompleted, BookingCancelled},
	// completed and cancelled are terminal
	BookingCompleted: nil,
	BookingCancelled: nil,
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// Valid reports whether s is a known lifecycle state.
func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// Tier thresholds on lifetime points.
const (
	goldThreshold     = 1000
	platinumThreshold = 5000
)

// TierFor derives the loyalty tier from lifetime points. Tier is never
// stored independently of this function's result.
func TierFor(lifetimePoints int) Tier {
	switch {
	case lifetimePoints >= platinumThreshold:
		return TierPlatinum
	case lifetimePoints >= goldThreshold:
		return TierGold
	default:
		return TierBronze
	}
}
