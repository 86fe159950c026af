package domain

import "errors"

// Shared sentinel errors. Repositories return ErrNotFound when a row lookup
// matches nothing and ErrWrongState when a conditioned write found the row but
// its status did not match the expected prior state, so callers can tell
// "doesn't exist" apart from "wrong state to transition".
var (
	ErrNotFound     = errors.New("not found")
	ErrWrongState   = errors.New("wrong state for this operation")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// Business-rule violations surfaced with a user-facing message.
var (
	ErrWorkshopFull      = errors.New("workshop is at capacity")
	ErrAlreadyRegistered = errors.New("an active registration already exists for this workshop")
	ErrPricingLocked     = errors.New("pricing can no longer be edited")
	ErrRefundExists      = errors.New("a refund already exists for this registration")
)
