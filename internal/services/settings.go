package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubstack/internal/domain"
)

type settingsService struct {
	settingsRepo   domain.SettingsRepository
	contextTimeout time.Duration
}

// NewSettingsService creates a SettingsService over the settings repository.
func NewSettingsService(settingsRepo domain.SettingsRepository, timeout time.Duration) domain.SettingsService {
	return &settingsService{settingsRepo: settingsRepo, contextTimeout: timeout}
}

func (s *settingsService) Get(ctx context.Context, key string) (*domain.Setting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	setting, err := s.settingsRepo.Get(ctx, nil, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return setting, nil
}

func (s *settingsService) Set(ctx context.Context, actor domain.Actor, key, value string) (*domain.Setting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.HasAnyRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", domain.ErrInvalidInput)
	}
	if err := s.settingsRepo.Set(ctx, nil, key, value); err != nil {
		return nil, fmt.Errorf("set setting: %w", err)
	}
	return s.settingsRepo.Get(ctx, nil, key)
}
