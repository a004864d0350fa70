package gateway

import (
	"context"
)

// Intent statuses as reported by the payment provider.
const (
	IntentStatusRequiresPayment = "requires_payment"
	IntentStatusSucceeded       = "succeeded"
	IntentStatusFailed          = "failed"
)

// Intent is a payment attempt registered with the provider. The client
// secret is handed to the guest's client to complete the charge; the
// booking service never sees card details.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Gateway abstracts the payment provider. RetrieveOutcome must hit the
// provider, not a local cache: confirm decisions are made on the
// provider's word alone.
type Gateway interface {
	CreateIntent(ctx context.Context, bookingID string, amount int64, currency string) (*Intent, error)
	RetrieveOutcome(ctx context.Context, intentID string) (*Intent, error)
}

// Succeeded reports whether the intent settled successfully.
func (i *Intent) Succeeded() bool {
	return i.Status == IntentStatusSucceeded
}
