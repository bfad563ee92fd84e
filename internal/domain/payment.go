package domain

import "time"

type AttemptStatus string

const (
	// AttemptCreated means a gateway order exists and the hosted checkout may
	// still be open. It is the only non-terminal status.
	AttemptCreated  AttemptStatus = "created"
	AttemptCaptured AttemptStatus = "captured"
	AttemptFailed   AttemptStatus = "failed"
	AttemptCanceled AttemptStatus = "canceled"
)

// CanTransition reports whether an attempt may move from s to the target
// status. captured, failed and canceled are terminal for the attempt; a new
// checkout starts a new attempt.
func (s AttemptStatus) CanTransition(to AttemptStatus) bool {
	if s != AttemptCreated {
		return false
	}
	switch to {
	case AttemptCaptured, AttemptFailed, AttemptCanceled:
		return true
	default:
		return false
	}
}

// PaymentAttempt tracks one gateway checkout for a booking draft. The gateway
// order id is the natural key; amounts are whole rupees.
type PaymentAttempt struct {
	ID            int64         `json:"id"`
	OrderID       string        `json:"order_id"`
	Tier          string        `json:"tier"`
	BaseAmount    int64         `json:"base_amount"`
	PlatformFee   int64         `json:"platform_fee"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	Status        AttemptStatus `json:"status"`
	PaymentID     *string       `json:"payment_id,omitempty"`
	BookingID     *int64        `json:"booking_id,omitempty"`
	TravelerEmail string        `json:"traveler_email"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
