package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubstack/internal/domain"
	"clubstack/internal/monitoring"
)

type workshopService struct {
	txm              domain.TransactionManager
	workshopRepo     domain.WorkshopRepository
	registrationRepo domain.RegistrationRepository
	payments         domain.PaymentProvider
	emailService     domain.EmailService
	contextTimeout   time.Duration
}

// NewWorkshopService creates a WorkshopService with the given collaborators.
// emailService may be nil; cancellation notices are then skipped.
func NewWorkshopService(
	txm domain.TransactionManager,
	workshopRepo domain.WorkshopRepository,
	registrationRepo domain.RegistrationRepository,
	payments domain.PaymentProvider,
	emailService domain.EmailService,
	timeout time.Duration,
) domain.WorkshopService {
	return &workshopService{
		txm:              txm,
		workshopRepo:     workshopRepo,
		registrationRepo: registrationRepo,
		payments:         payments,
		emailService:     emailService,
		contextTimeout:   timeout,
	}
}

func (s *workshopService) Create(ctx context.Context, actor domain.Actor, w *domain.Workshop) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	if w.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if !w.EndsAt.After(w.StartsAt) {
		return fmt.Errorf("%w: workshop must end after it starts", domain.ErrInvalidInput)
	}
	if w.MaxCapacity <= 0 {
		return fmt.Errorf("%w: max_capacity must be positive", domain.ErrInvalidInput)
	}
	if w.PriceMember < 0 || w.PriceNonMember < 0 {
		return fmt.Errorf("%w: prices must not be negative", domain.ErrInvalidInput)
	}
	if w.RefundDays != nil && *w.RefundDays < 0 {
		return fmt.Errorf("%w: refund_days must not be negative", domain.ErrInvalidInput)
	}
	if w.Visibility == "" {
		w.Visibility = domain.VisibilityPublic
	}

	now := time.Now()
	w.Status = domain.WorkshopPlanned
	w.CreatedBy = actor.UserID
	w.CreatedAt = now
	w.UpdatedAt = now
	return s.workshopRepo.Create(ctx, nil, w)
}

func (s *workshopService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Workshop, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	w, err := s.workshopRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get workshop: %w", err)
	}
	if w.Visibility == domain.VisibilityMembersOnly && !actor.HasAnyRole(domain.RoleAdmin, domain.RoleMember) {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func (s *workshopService) List(ctx context.Context, actor domain.Actor) ([]*domain.Workshop, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	includeMembersOnly := actor.HasAnyRole(domain.RoleAdmin, domain.RoleMember)
	workshops, err := s.workshopRepo.List(ctx, nil, includeMembersOnly)
	if err != nil {
		return nil, fmt.Errorf("list workshops: %w", err)
	}
	return workshops, nil
}

func (s *workshopService) Update(ctx context.Context, actor domain.Actor, id string, patch domain.WorkshopPatch) (*domain.Workshop, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}

	var updated *domain.Workshop
	err := s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		w, err := s.workshopRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if w.Status != domain.WorkshopPlanned {
			return domain.ErrWrongState
		}
		if patch.TouchesPricing() {
			ok, err := s.pricingEditable(ctx, tx, w)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrPricingLocked
			}
		}
		updated, err = s.workshopRepo.Update(ctx, tx, id, patch)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrWrongState) || errors.Is(err, domain.ErrPricingLocked) {
			return nil, err
		}
		return nil, fmt.Errorf("update workshop: %w", err)
	}
	return updated, nil
}

func (s *workshopService) CanEdit(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	w, err := s.workshopRepo.GetByID(ctx, nil, id)
	if err != nil {
		return false, err
	}
	return w.Status == domain.WorkshopPlanned, nil
}

func (s *workshopService) CanEditPricing(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	w, err := s.workshopRepo.GetByID(ctx, nil, id)
	if err != nil {
		return false, err
	}
	return s.pricingEditable(ctx, nil, w)
}

// pricingEditable: pricing stays editable while the workshop is planned, or in
// any status as long as nobody has registered yet.
func (s *workshopService) pricingEditable(ctx context.Context, tx domain.Tx, w *domain.Workshop) (bool, error) {
	if w.Status == domain.WorkshopPlanned {
		return true, nil
	}
	count, err := s.registrationRepo.CountByWorkshop(ctx, tx, w.ID)
	if err != nil {
		return false, fmt.Errorf("count registrations: %w", err)
	}
	return count == 0, nil
}

func (s *workshopService) Publish(ctx context.Context, actor domain.Actor, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	// Conditioned update, not check-then-set: two concurrent publishes cannot
	// both succeed.
	if err := s.workshopRepo.UpdateStatus(ctx, nil, id, domain.WorkshopPlanned, domain.WorkshopPublished); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrWrongState) {
			return err
		}
		return fmt.Errorf("publish workshop: %w", err)
	}
	return nil
}

// Cancel refunds every paid registration and flips the workshop to cancelled,
// all inside one transaction. A provider error other than "charge already
// refunded" aborts the whole cancel; the workshop stays published and the
// operator can retry.
func (s *workshopService) Cancel(ctx context.Context, actor domain.Actor, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}

	var notify []*domain.Registration
	err := s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		regs, err := s.registrationRepo.ListPaidByWorkshop(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("list paid registrations: %w", err)
		}
		for _, reg := range regs {
			_, err := s.payments.CreateRefund(ctx, *reg.CheckoutSessionID, reg.AmountPaid, "workshop cancelled")
			if err != nil {
				if errors.Is(err, domain.ErrChargeAlreadyRefunded) {
					// Already refunded out of band; treat as success.
					continue
				}
				return fmt.Errorf("refund registration %s: %w", reg.ID, err)
			}
		}
		if err := s.workshopRepo.UpdateStatus(ctx, tx, id, domain.WorkshopPublished, domain.WorkshopCancelled); err != nil {
			return err
		}
		notify = regs
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrWrongState) {
			return err
		}
		return fmt.Errorf("cancel workshop: %w", err)
	}

	monitoring.WorkshopCancelled()
	s.sendCancellationNotices(ctx, id, notify)
	return nil
}

// sendCancellationNotices is best effort: the cancel already committed, a mail
// failure must not surface as an operation failure.
func (s *workshopService) sendCancellationNotices(ctx context.Context, workshopID string, regs []*domain.Registration) {
	if s.emailService == nil || len(regs) == 0 {
		return
	}
	w, err := s.workshopRepo.GetByID(ctx, nil, workshopID)
	if err != nil {
		return
	}
	attendees, err := s.registrationRepo.ListAttendees(ctx, nil, workshopID)
	if err != nil {
		return
	}
	for _, a := range attendees {
		if a.Email == "" {
			continue
		}
		_ = s.emailService.SendCancellationNotice(ctx, &domain.CancellationNoticeEmailData{
			Email:         a.Email,
			AttendeeName:  a.DisplayName,
			WorkshopTitle: w.Title,
			Refunded:      a.Registration.CheckoutSessionID != nil,
		})
	}
}

func (s *workshopService) MarkFinished(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.workshopRepo.UpdateStatus(ctx, nil, id, domain.WorkshopPublished, domain.WorkshopFinished); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrWrongState) {
			return err
		}
		return fmt.Errorf("finish workshop: %w", err)
	}
	return nil
}

func (s *workshopService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	if err := s.workshopRepo.Delete(ctx, nil, id, domain.WorkshopPlanned); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrWrongState) {
			return err
		}
		return fmt.Errorf("delete workshop: %w", err)
	}
	return nil
}
