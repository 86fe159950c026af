package domain

import "context"

// BillingInterval selects which membership fee applies.
type BillingInterval string

const (
	BillingMonthly BillingInterval = "monthly"
	BillingAnnual  BillingInterval = "annual"
)

// MembershipQuote is the prorated first payment for a new membership, in
// integer minor-currency units.
type MembershipQuote struct {
	Interval        BillingInterval `json:"interval"`
	BaseFee         int64           `json:"base_fee"`
	DiscountPercent int             `json:"discount_percent"`
	FirstPayment    int64           `json:"first_payment"`
}

// MembershipService quotes and starts provider-billed memberships. The quote
// and the charge read the same stored fees through the same computation.
type MembershipService interface {
	QuoteFirstPayment(ctx context.Context, interval BillingInterval) (*MembershipQuote, error)
	StartMembership(ctx context.Context, actor Actor, interval BillingInterval, customerID, priceID string) (*MembershipQuote, *Subscription, error)
}
