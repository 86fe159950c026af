package domain

import (
	"context"
	"time"
)

// Setting keys used by the application.
const (
	SettingWaitlistOpen         = "waitlist_open"
	SettingMembershipMonthlyFee = "membership_monthly_fee"
	SettingMembershipAnnualFee  = "membership_annual_fee"
	SettingMembershipDiscount   = "membership_discount_percent"
)

// Setting is one global key-value configuration row. Settings live in the
// database, never in in-process state, so multiple server instances stay
// consistent.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingsRepository defines storage operations for configuration rows.
type SettingsRepository interface {
	Get(ctx context.Context, tx Tx, key string) (*Setting, error)
	// Set upserts the value for a key.
	Set(ctx context.Context, tx Tx, key, value string) error
}

// SettingsService exposes configuration reads to anyone and writes to admins.
type SettingsService interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, actor Actor, key, value string) (*Setting, error)
}
