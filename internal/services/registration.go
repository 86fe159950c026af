package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubstack/internal/domain"
	"clubstack/internal/monitoring"
)

type registrationService struct {
	txm              domain.TransactionManager
	workshopRepo     domain.WorkshopRepository
	registrationRepo domain.RegistrationRepository
	interestRepo     domain.InterestRepository
	payments         domain.PaymentProvider
	contextTimeout   time.Duration
}

// NewRegistrationService creates a RegistrationService with the given collaborators.
func NewRegistrationService(
	txm domain.TransactionManager,
	workshopRepo domain.WorkshopRepository,
	registrationRepo domain.RegistrationRepository,
	interestRepo domain.InterestRepository,
	payments domain.PaymentProvider,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		txm:              txm,
		workshopRepo:     workshopRepo,
		registrationRepo: registrationRepo,
		interestRepo:     interestRepo,
		payments:         payments,
		contextTimeout:   timeout,
	}
}

// ToggleInterest flips the presence of an interest row for (workshop, user):
// delete if present, insert otherwise. Only meaningful while the workshop is
// still planned.
func (s *registrationService) ToggleInterest(ctx context.Context, actor domain.Actor, workshopID string) (domain.InterestAction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var action domain.InterestAction
	err := s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		w, err := s.workshopRepo.GetByID(ctx, tx, workshopID)
		if err != nil {
			return err
		}
		if w.Status != domain.WorkshopPlanned {
			return domain.ErrWrongState
		}
		deleted, err := s.interestRepo.DeleteByWorkshopAndUser(ctx, tx, workshopID, actor.UserID)
		if err != nil {
			return fmt.Errorf("delete interest: %w", err)
		}
		if deleted {
			action = domain.InterestWithdrawn
			return nil
		}
		in := &domain.Interest{WorkshopID: workshopID, UserID: actor.UserID, CreatedAt: time.Now()}
		if err := s.interestRepo.Create(ctx, tx, in); err != nil {
			return fmt.Errorf("create interest: %w", err)
		}
		action = domain.InterestExpressed
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrWrongState) {
			return "", err
		}
		return "", fmt.Errorf("toggle interest: %w", err)
	}
	return action, nil
}

// CreatePaymentIntent opens a provider charge for the workshop after the
// workshop state, duplicate-registration, and capacity checks all pass inside
// one transaction. No provider call is made when any check fails.
func (s *registrationService) CreatePaymentIntent(ctx context.Context, actor domain.Actor, workshopID string, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var intent *domain.PaymentIntent
	err := s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		w, err := s.workshopRepo.GetByID(ctx, tx, workshopID)
		if err != nil {
			return err
		}
		if w.Status != domain.WorkshopPublished {
			return domain.ErrWrongState
		}

		if _, err := s.registrationRepo.GetActiveByWorkshopAndMember(ctx, tx, workshopID, actor.UserID); err == nil {
			return domain.ErrAlreadyRegistered
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get active registration: %w", err)
		}

		count, err := s.registrationRepo.CountActiveByWorkshop(ctx, tx, workshopID)
		if err != nil {
			return fmt.Errorf("count active registrations: %w", err)
		}
		if count >= w.MaxCapacity {
			return domain.ErrWorkshopFull
		}

		// The charge amount comes from the stored workshop prices; the
		// client-sent values are only validated, never trusted.
		price := w.PriceNonMember
		if actor.HasAnyRole(domain.RoleMember) {
			price = w.PriceMember
		}
		if req.Amount != price {
			return fmt.Errorf("%w: amount does not match the workshop price", domain.ErrInvalidInput)
		}
		if req.Currency != "" && req.Currency != w.Currency {
			return fmt.Errorf("%w: currency does not match the workshop currency", domain.ErrInvalidInput)
		}

		intent, err = s.payments.CreatePaymentIntent(ctx, domain.CreatePaymentIntentInput{
			Amount:     price,
			Currency:   w.Currency,
			CustomerID: req.CustomerID,
			Metadata: map[string]string{
				domain.MetadataWorkshopID: workshopID,
				domain.MetadataUserID:     actor.UserID,
			},
		})
		if err != nil {
			return fmt.Errorf("create payment intent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// CompleteRegistration verifies the provider-side payment before any write:
// the intent must have succeeded and its metadata must reference this
// workshop. Amount and currency are taken from the provider object.
func (s *registrationService) CompleteRegistration(ctx context.Context, actor domain.Actor, workshopID, paymentIntentID string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	intent, err := s.payments.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent: %w", err)
	}
	if intent.Status != domain.PaymentIntentSucceeded {
		return nil, domain.ErrPaymentNotSucceeded
	}
	if intent.Metadata[domain.MetadataWorkshopID] != workshopID {
		return nil, fmt.Errorf("%w: payment does not belong to this workshop", domain.ErrInvalidInput)
	}

	now := time.Now()
	reg := &domain.Registration{
		WorkshopID:        workshopID,
		MemberID:          &actor.UserID,
		Status:            domain.RegistrationConfirmed,
		AmountPaid:        intent.Amount,
		Currency:          intent.Currency,
		CheckoutSessionID: &intent.ID,
		RegisteredAt:      now,
		ConfirmedAt:       &now,
	}
	err = s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		w, err := s.workshopRepo.GetByID(ctx, tx, workshopID)
		if err != nil {
			return err
		}
		if w.Status != domain.WorkshopPublished {
			return domain.ErrWrongState
		}
		if _, err := s.registrationRepo.GetActiveByWorkshopAndMember(ctx, tx, workshopID, actor.UserID); err == nil {
			return domain.ErrAlreadyRegistered
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get active registration: %w", err)
		}
		// Capacity is re-checked here rather than trusted from payment-intent
		// time; the partial unique index is the last backstop.
		count, err := s.registrationRepo.CountActiveByWorkshop(ctx, tx, workshopID)
		if err != nil {
			return fmt.Errorf("count active registrations: %w", err)
		}
		if count >= w.MaxCapacity {
			return domain.ErrWorkshopFull
		}
		return s.registrationRepo.Create(ctx, tx, reg)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrWrongState) ||
			errors.Is(err, domain.ErrAlreadyRegistered) || errors.Is(err, domain.ErrWorkshopFull) {
			return nil, err
		}
		return nil, fmt.Errorf("complete registration: %w", err)
	}

	monitoring.RegistrationConfirmed()
	return reg, nil
}

// CancelRegistration flips the caller's active registration to cancelled.
// Refunds are a separate explicit action.
func (s *registrationService) CancelRegistration(ctx context.Context, actor domain.Actor, workshopID string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var reg *domain.Registration
	err := s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		var err error
		reg, err = s.registrationRepo.GetActiveByWorkshopAndMember(ctx, tx, workshopID, actor.UserID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := s.registrationRepo.UpdateStatus(ctx, tx, reg.ID, domain.ActiveRegistrationStatuses, domain.RegistrationCancelled, now); err != nil {
			return err
		}
		reg.Status = domain.RegistrationCancelled
		reg.CancelledAt = &now
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrWrongState) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel registration: %w", err)
	}
	return reg, nil
}

func (s *registrationService) GetWorkshopAttendees(ctx context.Context, actor domain.Actor, workshopID string) ([]*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	attendees, err := s.registrationRepo.ListAttendees(ctx, nil, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return attendees, nil
}

func (s *registrationService) ListMyRegistrations(ctx context.Context, actor domain.Actor) ([]*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	regs, err := s.registrationRepo.ListByMember(ctx, nil, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *registrationService) ListInterest(ctx context.Context, actor domain.Actor, workshopID string) ([]*domain.Interest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	interests, err := s.interestRepo.ListByWorkshop(ctx, nil, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list interest: %w", err)
	}
	return interests, nil
}
