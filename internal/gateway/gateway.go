package gateway

import "context"

// Order is the short-lived handle the gateway returns for one checkout
// attempt. Amount is in the currency's smallest unit (paise for INR).
type Order struct {
	ID       string
	Amount   int64
	Currency string
}

// Gateway abstracts the hosted-checkout payment provider.
type Gateway interface {
	// CreateOrder registers a checkout order for the given amount in paise.
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (*Order, error)

	// VerifySignature checks the signature the hosted checkout hands back on
	// success against the gateway's signing secret.
	VerifySignature(orderID, paymentID, signature string) bool
}
