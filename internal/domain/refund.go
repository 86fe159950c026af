package domain

import (
	"context"
	"fmt"
	"time"
)

// RefundStatus is the lifecycle state of a refund record.
type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundCompleted  RefundStatus = "completed"
	RefundFailed     RefundStatus = "failed"
	RefundCancelled  RefundStatus = "cancelled"
)

// Refund is a record of money returned for a registration. One refund per
// registration at most.
// swagger:model Refund
type Refund struct {
	ID               string       `json:"id"`
	RegistrationID   string       `json:"registration_id"`
	Amount           int64        `json:"amount"`
	Currency         string       `json:"currency"`
	Reason           string       `json:"reason"`
	Status           RefundStatus `json:"status"`
	ProviderRefundID *string      `json:"provider_refund_id,omitempty"`
	ProcessedBy      *string      `json:"processed_by,omitempty"`
	ProcessedAt      *time.Time   `json:"processed_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// RefundEligibility is the result of an eligibility check. When eligible, it
// carries the registration and workshop so the caller can reuse them without a
// second query.
type RefundEligibility struct {
	Eligible     bool          `json:"eligible"`
	Reason       string        `json:"reason,omitempty"`
	Registration *Registration `json:"-"`
	Workshop     *Workshop     `json:"-"`
}

// IneligibleError is returned by ProcessRefund when the in-transaction
// re-check finds the registration ineligible.
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("registration not eligible for refund: %s", e.Reason)
}

// RefundRepository defines storage operations for refund records.
type RefundRepository interface {
	Create(ctx context.Context, tx Tx, r *Refund) error
	GetByID(ctx context.Context, tx Tx, id string) (*Refund, error)
	// GetByRegistrationID returns the refund for a registration, or ErrNotFound.
	GetByRegistrationID(ctx context.Context, tx Tx, registrationID string) (*Refund, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, to RefundStatus, providerRefundID, processedBy *string, processedAt *time.Time) error
}

// RefundService defines refund eligibility checks and processing.
type RefundService interface {
	CheckEligibility(ctx context.Context, registrationID string) (*RefundEligibility, error)
	ProcessRefund(ctx context.Context, actor Actor, registrationID, reason string) (*Refund, error)
}
