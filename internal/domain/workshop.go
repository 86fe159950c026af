package domain

import (
	"context"
	"time"
)

// WorkshopStatus is the lifecycle state of a workshop.
type WorkshopStatus string

const (
	WorkshopPlanned   WorkshopStatus = "planned"
	WorkshopPublished WorkshopStatus = "published"
	WorkshopCancelled WorkshopStatus = "cancelled"
	WorkshopFinished  WorkshopStatus = "finished"
)

// WorkshopVisibility controls who can see a workshop in listings.
type WorkshopVisibility string

const (
	VisibilityPublic      WorkshopVisibility = "public"
	VisibilityMembersOnly WorkshopVisibility = "members_only"
)

// Workshop represents a scheduled club event attendees can pay to join.
// Prices are integer minor-currency units.
// swagger:model Workshop
type Workshop struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Location       string             `json:"location"`
	StartsAt       time.Time          `json:"starts_at"`
	EndsAt         time.Time          `json:"ends_at"`
	MaxCapacity    int                `json:"max_capacity"`
	PriceMember    int64              `json:"price_member"`
	PriceNonMember int64              `json:"price_non_member"`
	Currency       string             `json:"currency"`
	Visibility     WorkshopVisibility `json:"visibility"`
	RefundDays     *int               `json:"refund_days"`
	Status         WorkshopStatus     `json:"status"`
	CreatedBy      string             `json:"created_by"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewWorkshop returns a planned Workshop owned by createdBy. ID is set by the
// repository on create.
func NewWorkshop(title, location string, startsAt, endsAt time.Time, maxCapacity int, priceMember, priceNonMember int64, currency string, visibility WorkshopVisibility, refundDays *int, createdBy string, createdAt, updatedAt time.Time) *Workshop {
	return &Workshop{
		Title:          title,
		Location:       location,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		MaxCapacity:    maxCapacity,
		PriceMember:    priceMember,
		PriceNonMember: priceNonMember,
		Currency:       currency,
		Visibility:     visibility,
		RefundDays:     refundDays,
		Status:         WorkshopPlanned,
		CreatedBy:      createdBy,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// RefundDeadline returns the instant after which registrations for this
// workshop are no longer refundable, or ok=false when no deadline is set.
func (w *Workshop) RefundDeadline() (deadline time.Time, ok bool) {
	if w.RefundDays == nil {
		return time.Time{}, false
	}
	return w.StartsAt.AddDate(0, 0, -*w.RefundDays), true
}

// WorkshopPatch carries optional field updates. Nil fields are unchanged.
type WorkshopPatch struct {
	Title          *string
	Location       *string
	StartsAt       *time.Time
	EndsAt         *time.Time
	MaxCapacity    *int
	PriceMember    *int64
	PriceNonMember *int64
	Visibility     *WorkshopVisibility
	RefundDays     *int
}

// TouchesPricing reports whether the patch edits any pricing field.
func (p WorkshopPatch) TouchesPricing() bool {
	return p.PriceMember != nil || p.PriceNonMember != nil
}

// WorkshopRepository defines storage operations for workshops. Methods accept
// an optional transaction handle; nil runs on the base connection.
type WorkshopRepository interface {
	Create(ctx context.Context, tx Tx, w *Workshop) error
	GetByID(ctx context.Context, tx Tx, id string) (*Workshop, error)
	List(ctx context.Context, tx Tx, includeMembersOnly bool) ([]*Workshop, error)
	Update(ctx context.Context, tx Tx, id string, patch WorkshopPatch) (*Workshop, error)
	// UpdateStatus performs a conditioned update from -> to. Returns
	// ErrWrongState when the row exists in another status and ErrNotFound when
	// it does not exist.
	UpdateStatus(ctx context.Context, tx Tx, id string, from, to WorkshopStatus) error
	// Delete removes the workshop only while it is in the given status.
	Delete(ctx context.Context, tx Tx, id string, from WorkshopStatus) error
}

// WorkshopService defines the workshop lifecycle operations.
type WorkshopService interface {
	Create(ctx context.Context, actor Actor, w *Workshop) error
	Get(ctx context.Context, actor Actor, id string) (*Workshop, error)
	List(ctx context.Context, actor Actor) ([]*Workshop, error)
	Update(ctx context.Context, actor Actor, id string, patch WorkshopPatch) (*Workshop, error)
	CanEdit(ctx context.Context, id string) (bool, error)
	CanEditPricing(ctx context.Context, id string) (bool, error)
	Publish(ctx context.Context, actor Actor, id string) error
	Cancel(ctx context.Context, actor Actor, id string) error
	MarkFinished(ctx context.Context, id string) error
	Delete(ctx context.Context, actor Actor, id string) error
}
