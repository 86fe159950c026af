package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"clubstack/internal/domain"
)

type stripeProvider struct {
	api *client.API
}

// NewStripeProvider returns a PaymentProvider backed by the Stripe API.
func NewStripeProvider(secretKey string) domain.PaymentProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeProvider{api: api}
}

func (p *stripeProvider) CreatePaymentIntent(ctx context.Context, in domain.CreatePaymentIntentInput) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(uuid.NewString()),
		},
		Amount:   stripe.Int64(in.Amount),
		Currency: stripe.String(in.Currency),
	}
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return toPaymentIntent(intent), nil
}

func (p *stripeProvider) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}
	intent, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent %s: %w", id, err)
	}
	return toPaymentIntent(intent), nil
}

func (p *stripeProvider) CreateRefund(ctx context.Context, paymentIntentID string, amount int64, reason string) (*domain.ProviderRefund, error) {
	params := &stripe.RefundParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(uuid.NewString()),
		},
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}
	if reason != "" {
		params.Reason = stripe.String(refundReason(reason))
	}
	refund, err := p.api.Refunds.New(params)
	if err != nil {
		if isChargeAlreadyRefunded(err) {
			return nil, domain.ErrChargeAlreadyRefunded
		}
		return nil, fmt.Errorf("failed to create refund for %s: %w", paymentIntentID, err)
	}
	return &domain.ProviderRefund{
		ID:     refund.ID,
		Amount: refund.Amount,
		Status: string(refund.Status),
	}, nil
}

func (p *stripeProvider) CreateSubscription(ctx context.Context, customerID, priceID string) (*domain.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(uuid.NewString()),
		},
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription for customer %s: %w", customerID, err)
	}
	return &domain.Subscription{
		ID:     sub.ID,
		Status: string(sub.Status),
	}, nil
}

func toPaymentIntent(intent *stripe.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       domain.PaymentIntentStatus(intent.Status),
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
		Metadata:     intent.Metadata,
	}
}

// refundReason translates a local refund reason into one of the values
// Stripe accepts. Freeform text is kept on the local refund record only;
// anything that is not already a Stripe reason maps to requested_by_customer.
func refundReason(reason string) string {
	switch stripe.RefundReason(reason) {
	case stripe.RefundReasonDuplicate, stripe.RefundReasonFraudulent, stripe.RefundReasonRequestedByCustomer:
		return reason
	}
	return string(stripe.RefundReasonRequestedByCustomer)
}

func isChargeAlreadyRefunded(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code == stripe.ErrorCodeChargeAlreadyRefunded
	}
	return false
}
