package domain

import (
	"context"
	"time"
)

// RegistrationStatus is the lifecycle state of a registration.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
	RegistrationRefunded  RegistrationStatus = "refunded"
)

// ActiveRegistrationStatuses are the statuses that count towards capacity and
// block a duplicate signup.
var ActiveRegistrationStatuses = []RegistrationStatus{RegistrationPending, RegistrationConfirmed}

// AttendanceStatus records whether an attendee showed up.
type AttendanceStatus string

const (
	AttendanceAttended AttendanceStatus = "attended"
	AttendanceNoShow   AttendanceStatus = "no_show"
	AttendanceExcused  AttendanceStatus = "excused"
)

// Registration is one attendee's signup record for a workshop. Exactly one of
// MemberID or the external attendee fields is set. AmountPaid is in integer
// minor-currency units and is taken from the payment provider, never from the
// client.
// swagger:model Registration
type Registration struct {
	ID                string             `json:"id"`
	WorkshopID        string             `json:"workshop_id"`
	MemberID          *string            `json:"member_id,omitempty"`
	ExternalName      *string            `json:"external_name,omitempty"`
	ExternalEmail     *string            `json:"external_email,omitempty"`
	Status            RegistrationStatus `json:"status"`
	AmountPaid        int64              `json:"amount_paid"`
	Currency          string             `json:"currency"`
	CheckoutSessionID *string            `json:"stripe_checkout_session_id,omitempty"`
	RegisteredAt      time.Time          `json:"registered_at"`
	ConfirmedAt       *time.Time         `json:"confirmed_at,omitempty"`
	CancelledAt       *time.Time         `json:"cancelled_at,omitempty"`

	AttendanceStatus   *AttendanceStatus `json:"attendance_status,omitempty"`
	AttendanceMarkedBy *string           `json:"attendance_marked_by,omitempty"`
	AttendanceMarkedAt *time.Time        `json:"attendance_marked_at,omitempty"`
	AttendanceNotes    *string           `json:"attendance_notes,omitempty"`
}

// Attendee is a registration joined with a display name resolved from the
// member profile or the external attendee fields, whichever is populated.
type Attendee struct {
	Registration *Registration `json:"registration"`
	DisplayName  string        `json:"display_name"`
	Email        string        `json:"email"`
}

// AttendanceUpdate is one attendance write for a registration of a workshop.
type AttendanceUpdate struct {
	RegistrationID string           `json:"registration_id"`
	Status         AttendanceStatus `json:"status"`
	Notes          *string          `json:"notes,omitempty"`
}

// Interest is a non-binding pre-registration signal for a not-yet-published
// workshop. Unique per (workshop, user).
type Interest struct {
	ID         string    `json:"id"`
	WorkshopID string    `json:"workshop_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// InterestAction reports which way a toggle went.
type InterestAction string

const (
	InterestExpressed InterestAction = "expressed"
	InterestWithdrawn InterestAction = "withdrawn"
)

// RegistrationRepository defines storage operations for registrations and
// attendance fields. Methods accept an optional transaction handle.
type RegistrationRepository interface {
	Create(ctx context.Context, tx Tx, reg *Registration) error
	GetByID(ctx context.Context, tx Tx, id string) (*Registration, error)
	// GetActiveByWorkshopAndMember returns the member's pending or confirmed
	// registration for the workshop, or ErrNotFound.
	GetActiveByWorkshopAndMember(ctx context.Context, tx Tx, workshopID, memberID string) (*Registration, error)
	// CountActiveByWorkshop counts pending + confirmed registrations.
	CountActiveByWorkshop(ctx context.Context, tx Tx, workshopID string) (int, error)
	// CountByWorkshop counts registrations in any status (pricing lock check).
	CountByWorkshop(ctx context.Context, tx Tx, workshopID string) (int, error)
	// ListPaidByWorkshop returns registrations with a non-null payment-session
	// reference, for refund fan-out.
	ListPaidByWorkshop(ctx context.Context, tx Tx, workshopID string) ([]*Registration, error)
	// ListAttendees returns confirmed + pending registrations with display
	// names, ordered by registration time ascending.
	ListAttendees(ctx context.Context, tx Tx, workshopID string) ([]*Attendee, error)
	ListByMember(ctx context.Context, tx Tx, memberID string) ([]*Registration, error)
	// UpdateStatus performs a conditioned transition from any of the given
	// statuses. ErrWrongState / ErrNotFound semantics as WorkshopRepository.
	UpdateStatus(ctx context.Context, tx Tx, id string, from []RegistrationStatus, to RegistrationStatus, at time.Time) error
	// ListAttendance returns confirmed registrations with attendance fields.
	ListAttendance(ctx context.Context, tx Tx, workshopID string) ([]*Registration, error)
	// UpdateAttendance applies one attendance update scoped to the workshop.
	// Returns false when the registration does not belong to the workshop.
	UpdateAttendance(ctx context.Context, tx Tx, workshopID string, u AttendanceUpdate, markedBy string, markedAt time.Time) (bool, error)
}

// InterestRepository defines storage operations for interest signals.
type InterestRepository interface {
	Create(ctx context.Context, tx Tx, in *Interest) error
	// DeleteByWorkshopAndUser removes the row if present and reports whether
	// one was removed.
	DeleteByWorkshopAndUser(ctx context.Context, tx Tx, workshopID, userID string) (bool, error)
	ListByWorkshop(ctx context.Context, tx Tx, workshopID string) ([]*Interest, error)
}

// PaymentIntentRequest is the caller-supplied part of a payment-intent
// creation. Amount and currency are validated against the stored workshop
// prices; the charge itself is never derived from the client values alone.
type PaymentIntentRequest struct {
	Amount     int64
	Currency   string
	CustomerID string
}

// RegistrationService defines signup, interest, and attendee listing.
type RegistrationService interface {
	ToggleInterest(ctx context.Context, actor Actor, workshopID string) (InterestAction, error)
	CreatePaymentIntent(ctx context.Context, actor Actor, workshopID string, req PaymentIntentRequest) (*PaymentIntent, error)
	CompleteRegistration(ctx context.Context, actor Actor, workshopID, paymentIntentID string) (*Registration, error)
	CancelRegistration(ctx context.Context, actor Actor, workshopID string) (*Registration, error)
	GetWorkshopAttendees(ctx context.Context, actor Actor, workshopID string) ([]*Attendee, error)
	ListMyRegistrations(ctx context.Context, actor Actor) ([]*Registration, error)
	ListInterest(ctx context.Context, actor Actor, workshopID string) ([]*Interest, error)
}

// AttendanceService defines post-event check-in operations.
type AttendanceService interface {
	GetWorkshopAttendance(ctx context.Context, actor Actor, workshopID string) ([]*Registration, error)
	// UpdateAttendance applies the updates and returns how many rows matched.
	// Updates whose registration does not belong to the workshop are skipped.
	UpdateAttendance(ctx context.Context, actor Actor, workshopID string, updates []AttendanceUpdate) (int, error)
}
