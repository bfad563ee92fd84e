// Package fare computes the advance-payment tiers offered on the booking
// confirmation page. All amounts are whole rupees.
package fare

import (
	"fmt"
	"math"
)

// Tier identifiers, in the order the UI presents them.
const (
	TierCash    = "0"   // pay nothing now, full fare in cash to the driver
	TierAdvance = "20"  // 20% advance plus platform fee
	TierFull    = "100" // full fare plus platform fee
)

const platformFeeRate = 0.02

type PaymentOption struct {
	ID          string `json:"id"`
	BaseAmount  int64  `json:"baseAmount"`
	PlatformFee int64  `json:"platformFee"`
	Amount      int64  `json:"amount"`
	Label       string `json:"label"`
}

// Options returns the three payment tiers for a total fare, always in the
// fixed order 0%, 20%, 100%. Negative fares are treated as 0, matching the
// front-end's behavior when the upstream fare string fails to parse.
func Options(totalFare int64) []PaymentOption {
	if totalFare < 0 {
		totalFare = 0
	}

	twenty := roundShare(totalFare, 0.2)

	return []PaymentOption{
		newOption(TierCash, 0),
		newOption(TierAdvance, twenty),
		newOption(TierFull, totalFare),
	}
}

// OptionForTier returns the option for a single tier id, or false for an
// unknown tier.
func OptionForTier(totalFare int64, tier string) (PaymentOption, bool) {
	for _, opt := range Options(totalFare) {
		if opt.ID == tier {
			return opt, true
		}
	}
	return PaymentOption{}, false
}

func newOption(id string, base int64) PaymentOption {
	fee := roundShare(base, platformFeeRate)
	opt := PaymentOption{
		ID:          id,
		BaseAmount:  base,
		PlatformFee: fee,
		Amount:      base + fee,
	}
	opt.Label = label(opt)
	return opt
}

func label(opt PaymentOption) string {
	if opt.ID == TierCash {
		return "Pay ₹0 now, full fare in cash to driver"
	}
	return fmt.Sprintf("Pay ₹%d now (₹%d advance + ₹%d platform fee)",
		opt.Amount, opt.BaseAmount, opt.PlatformFee)
}

// roundShare applies rate to amount and rounds half away from zero.
func roundShare(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}
