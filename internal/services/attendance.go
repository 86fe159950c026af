package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubstack/internal/domain"
)

type attendanceService struct {
	txm              domain.TransactionManager
	workshopRepo     domain.WorkshopRepository
	registrationRepo domain.RegistrationRepository
	contextTimeout   time.Duration
}

// NewAttendanceService creates an AttendanceService with the given collaborators.
func NewAttendanceService(
	txm domain.TransactionManager,
	workshopRepo domain.WorkshopRepository,
	registrationRepo domain.RegistrationRepository,
	timeout time.Duration,
) domain.AttendanceService {
	return &attendanceService{
		txm:              txm,
		workshopRepo:     workshopRepo,
		registrationRepo: registrationRepo,
		contextTimeout:   timeout,
	}
}

func (s *attendanceService) GetWorkshopAttendance(ctx context.Context, actor domain.Actor, workshopID string) ([]*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	if _, err := s.workshopRepo.GetByID(ctx, nil, workshopID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get workshop: %w", err)
	}
	regs, err := s.registrationRepo.ListAttendance(ctx, nil, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return regs, nil
}

// UpdateAttendance applies check-in updates once the workshop has started.
// Updates whose registration id does not belong to the workshop are skipped.
// Returns the number of rows actually updated.
func (s *attendanceService) UpdateAttendance(ctx context.Context, actor domain.Actor, workshopID string, updates []domain.AttendanceUpdate) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return 0, domain.ErrForbidden
	}

	w, err := s.workshopRepo.GetByID(ctx, nil, workshopID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get workshop: %w", err)
	}
	if time.Now().Before(w.StartsAt) {
		return 0, fmt.Errorf("%w: attendance cannot be recorded before the workshop starts", domain.ErrWrongState)
	}

	for _, u := range updates {
		switch u.Status {
		case domain.AttendanceAttended, domain.AttendanceNoShow, domain.AttendanceExcused:
		default:
			return 0, fmt.Errorf("%w: unknown attendance status %q", domain.ErrInvalidInput, u.Status)
		}
	}

	updated := 0
	err = s.txm.WithinTx(ctx, func(tx domain.Tx) error {
		now := time.Now()
		for _, u := range updates {
			ok, err := s.registrationRepo.UpdateAttendance(ctx, tx, workshopID, u, actor.UserID, now)
			if err != nil {
				return fmt.Errorf("update attendance for %s: %w", u.RegistrationID, err)
			}
			if ok {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
