package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"clubstack/internal/domain"
)

type membershipService struct {
	settingsRepo   domain.SettingsRepository
	payments       domain.PaymentProvider
	contextTimeout time.Duration
}

// NewMembershipService creates a MembershipService that reads membership fees
// from the settings table and bills through the payment provider.
func NewMembershipService(settingsRepo domain.SettingsRepository, payments domain.PaymentProvider, timeout time.Duration) domain.MembershipService {
	return &membershipService{
		settingsRepo:   settingsRepo,
		payments:       payments,
		contextTimeout: timeout,
	}
}

// QuoteFirstPayment computes the prorated first payment for the remainder of
// the current billing period. The actual charge at StartMembership reads the
// same stored fees through the same computation, so the quoted and charged
// amounts cannot diverge.
func (s *membershipService) QuoteFirstPayment(ctx context.Context, interval domain.BillingInterval) (*domain.MembershipQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.quote(ctx, interval, time.Now())
}

func (s *membershipService) quote(ctx context.Context, interval domain.BillingInterval, now time.Time) (*domain.MembershipQuote, error) {
	var feeKey string
	switch interval {
	case domain.BillingMonthly:
		feeKey = domain.SettingMembershipMonthlyFee
	case domain.BillingAnnual:
		feeKey = domain.SettingMembershipAnnualFee
	default:
		return nil, fmt.Errorf("%w: unknown billing interval %q", domain.ErrInvalidInput, interval)
	}

	fee, err := s.intSetting(ctx, feeKey)
	if err != nil {
		return nil, err
	}
	discount := 0
	if d, err := s.intSetting(ctx, domain.SettingMembershipDiscount); err == nil {
		discount = int(d)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var first int64
	if interval == domain.BillingMonthly {
		first = domain.ProrateMonthly(fee, discount, now)
	} else {
		first = domain.ProrateAnnual(fee, discount, now)
	}
	return &domain.MembershipQuote{
		Interval:        interval,
		BaseFee:         fee,
		DiscountPercent: discount,
		FirstPayment:    first,
	}, nil
}

func (s *membershipService) StartMembership(ctx context.Context, actor domain.Actor, interval domain.BillingInterval, customerID, priceID string) (*domain.MembershipQuote, *domain.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if customerID == "" || priceID == "" {
		return nil, nil, fmt.Errorf("%w: customer and price are required", domain.ErrInvalidInput)
	}
	quote, err := s.quote(ctx, interval, time.Now())
	if err != nil {
		return nil, nil, err
	}
	sub, err := s.payments.CreateSubscription(ctx, customerID, priceID)
	if err != nil {
		return nil, nil, fmt.Errorf("create subscription: %w", err)
	}
	return quote, sub, nil
}

func (s *membershipService) intSetting(ctx context.Context, key string) (int64, error) {
	setting, err := s.settingsRepo.Get(ctx, nil, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get setting %s: %w", key, err)
	}
	v, err := strconv.ParseInt(setting.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s is not a number: %w", key, err)
	}
	return v, nil
}
