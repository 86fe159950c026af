package domain

import (
	"context"
	"errors"
)

// ErrChargeAlreadyRefunded is returned by PaymentProvider.CreateRefund when
// the provider rejects the call because the charge was already fully refunded.
// Callers treat it as idempotent success.
var ErrChargeAlreadyRefunded = errors.New("charge already refunded")

// ErrPaymentNotSucceeded is returned when a payment intent has not reached the
// provider's terminal "succeeded" status.
var ErrPaymentNotSucceeded = errors.New("payment has not succeeded")

// PaymentIntentStatus mirrors the provider-side payment intent status. The
// only value this system depends on is succeeded.
type PaymentIntentStatus string

// PaymentIntentSucceeded is the terminal success status of a payment intent.
const PaymentIntentSucceeded PaymentIntentStatus = "succeeded"

// PaymentIntent is the provider-side object representing an in-progress
// charge. Amount is in integer minor-currency units.
type PaymentIntent struct {
	ID           string              `json:"id"`
	ClientSecret string              `json:"client_secret"`
	Status       PaymentIntentStatus `json:"status"`
	Amount       int64               `json:"amount"`
	Currency     string              `json:"currency"`
	Metadata     map[string]string   `json:"metadata"`
}

// CreatePaymentIntentInput holds everything needed to open a charge with the
// provider. Metadata scopes the intent to a (workshop, user) pair.
type CreatePaymentIntentInput struct {
	Amount     int64
	Currency   string
	CustomerID string
	Metadata   map[string]string
}

// ProviderRefund is the provider-side refund object.
type ProviderRefund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// Subscription is the provider-side recurring-billing object used by the
// membership flow.
type Subscription struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PaymentProvider is the boundary to the hosted payments provider. Retries
// are the provider client's responsibility, not this subsystem's.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, in CreatePaymentIntentInput) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CreateRefund(ctx context.Context, paymentIntentID string, amount int64, reason string) (*ProviderRefund, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error)
}

// Metadata keys attached to payment intents.
const (
	MetadataWorkshopID = "workshop_id"
	MetadataUserID     = "user_id"
)
