package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubstack/internal/domain"
	"clubstack/internal/monitoring"
)

type refundService struct {
	txm              domain.TransactionManager
	workshopRepo     domain.WorkshopRepository
	registrationRepo domain.RegistrationRepository
	refundRepo       domain.RefundRepository
	payments         domain.PaymentProvider
	contextTimeout   time.Duration
}

// NewRefundService creates a RefundService with the given collaborators.
func NewRefundService(
	txm domain.TransactionManager,
	workshopRepo domain.WorkshopRepository,
	registrationRepo domain.RegistrationRepository,
	refundRepo domain.RefundRepository,
	payments domain.PaymentProvider,
	timeout time.Duration,
) domain.RefundService {
	return &refundService{
		txm:              txm,
		workshopRepo:     workshopRepo,
		registrationRepo: registrationRepo,
		refundRepo:       refundRepo,
		payments:         payments,
		contextTimeout:   timeout,
	}
}

// Ineligibility reasons surfaced to the caller.
const (
	reasonNotFound        = "registration not found"
	reasonAlreadyRefunded = "registration is already refunded"
	reasonFinished        = "workshop has already finished"
	reasonDeadlinePassed  = "the refund deadline for this workshop has passed"
	reasonRefundExists    = "a refund already exists for this registration"
)

func (s *refundService) CheckEligibility(ctx context.Context, registrationID string) (*domain.RefundEligibility, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eligibility(ctx, nil, registrationID, time.Now())
}

// eligibility runs the full rule set against the given transaction so
// ProcessRefund can re-check inside its own write transaction.
func (s *refundService) eligibility(ctx context.Context, tx domain.Tx, registrationID string, now time.Time) (*domain.RefundEligibility, error) {
	reg, err := s.registrationRepo.GetByID(ctx, tx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.RefundEligibility{Eligible: false, Reason: reasonNotFound}, nil
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if reg.Status == domain.RegistrationRefunded {
		return &domain.RefundEligibility{Eligible: false, Reason: reasonAlreadyRefunded, Registration: reg}, nil
	}

	w, err := s.workshopRepo.GetByID(ctx, tx, reg.WorkshopID)
	if err != nil {
		return nil, fmt.Errorf("get workshop: %w", err)
	}
	if w.Status == domain.WorkshopFinished {
		return &domain.RefundEligibility{Eligible: false, Reason: reasonFinished, Registration: reg, Workshop: w}, nil
	}
	if deadline, ok := w.RefundDeadline(); ok && now.After(deadline) {
		return &domain.RefundEligibility{Eligible: false, Reason: reasonDeadlinePassed, Registration: reg, Workshop: w}, nil
	}

	if _, err := s.refundRepo.GetByRegistrationID(ctx, tx, registrationID); err == nil {
		return &domain.RefundEligibility{Eligible: false, Reason: reasonRefundExists, Registration: reg, Workshop: w}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get refund: %w", err)
	}

	return &domain.RefundEligibility{Eligible: true, Registration: reg, Workshop: w}, nil
}

// ProcessRefund refunds one registration. Eligibility is re-checked inside the
// write transaction, a pending refund row is inserted, then the provider is
// called outside the transaction. On provider success the refund advances to
// processing and the registration flips to refunded; on provider failure the
// refund is marked failed, the registration keeps its current status, and the
// provider error is returned. Local records never claim money moved when the
// provider said otherwise.
func (s *refundService) ProcessRefund(ctx context.Context, actor domain.Actor, registrationID, reason string) (*domain.Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}

	var refund *domain.Refund
	var reg *domain.Registration
	err := s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		elig, err := s.eligibility(ctx, tx, registrationID, time.Now())
		if err != nil {
			return err
		}
		if !elig.Eligible {
			return &domain.IneligibleError{Reason: elig.Reason}
		}
		reg = elig.Registration
		now := time.Now()
		refund = &domain.Refund{
			RegistrationID: registrationID,
			Amount:         reg.AmountPaid,
			Currency:       reg.Currency,
			Reason:         reason,
			Status:         domain.RefundPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.refundRepo.Create(ctx, tx, refund)
	})
	if err != nil {
		var inelig *domain.IneligibleError
		if errors.As(err, &inelig) {
			return nil, err
		}
		return nil, fmt.Errorf("create refund: %w", err)
	}

	if reg.CheckoutSessionID == nil {
		// Nothing was paid through the provider; settle locally.
		if err := s.settle(ctx, refund, reg, nil, domain.RefundCompleted, actor.UserID); err != nil {
			return nil, err
		}
		monitoring.RefundProcessed(string(domain.RefundCompleted))
		return refund, nil
	}

	intent, err := s.payments.GetPaymentIntent(ctx, *reg.CheckoutSessionID)
	if err == nil {
		var providerRefund *domain.ProviderRefund
		providerRefund, err = s.payments.CreateRefund(ctx, intent.ID, reg.AmountPaid, reason)
		if err == nil {
			var refundID *string
			if providerRefund != nil {
				refundID = &providerRefund.ID
			}
			if serr := s.settle(ctx, refund, reg, refundID, domain.RefundProcessing, actor.UserID); serr != nil {
				return nil, serr
			}
			monitoring.RefundProcessed(string(domain.RefundProcessing))
			return refund, nil
		}
		if errors.Is(err, domain.ErrChargeAlreadyRefunded) {
			// Refunded out of band; reconcile local state as done.
			if serr := s.settle(ctx, refund, reg, nil, domain.RefundCompleted, actor.UserID); serr != nil {
				return nil, serr
			}
			monitoring.RefundProcessed(string(domain.RefundCompleted))
			return refund, nil
		}
	}

	// Provider failure: the refund row records it, the registration stays as
	// it was, and the original error goes back to the caller for operators to
	// reconcile.
	failErr := s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		return s.refundRepo.UpdateStatus(ctx, tx, refund.ID, domain.RefundFailed, nil, nil, nil)
	})
	monitoring.RefundProcessed(string(domain.RefundFailed))
	if failErr != nil {
		return nil, fmt.Errorf("mark refund failed after provider error %v: %w", err, failErr)
	}
	return nil, fmt.Errorf("provider refund: %w", err)
}

// settle records the provider outcome and flips the registration to refunded.
func (s *refundService) settle(ctx context.Context, refund *domain.Refund, reg *domain.Registration, providerRefundID *string, to domain.RefundStatus, processedBy string) error {
	err := s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		now := time.Now()
		if err := s.refundRepo.UpdateStatus(ctx, tx, refund.ID, to, providerRefundID, &processedBy, &now); err != nil {
			return err
		}
		if err := s.registrationRepo.UpdateStatus(ctx, tx, reg.ID,
			[]domain.RegistrationStatus{domain.RegistrationPending, domain.RegistrationConfirmed, domain.RegistrationCancelled},
			domain.RegistrationRefunded, now); err != nil {
			return err
		}
		refund.Status = to
		refund.ProviderRefundID = providerRefundID
		refund.ProcessedBy = &processedBy
		refund.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return fmt.Errorf("settle refund: %w", err)
	}
	return nil
}
