package payments

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
)

func TestRefundReason(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		want   string
	}{
		{
			name:   "freeform cancellation text maps to requested_by_customer",
			reason: "workshop cancelled",
			want:   "requested_by_customer",
		},
		{
			name:   "admin-typed text maps to requested_by_customer",
			reason: "member asked by email",
			want:   "requested_by_customer",
		},
		{
			name:   "duplicate passes through",
			reason: "duplicate",
			want:   "duplicate",
		},
		{
			name:   "fraudulent passes through",
			reason: "fraudulent",
			want:   "fraudulent",
		},
		{
			name:   "requested_by_customer passes through",
			reason: "requested_by_customer",
			want:   "requested_by_customer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, refundReason(tt.reason))
		})
	}
}

func TestIsChargeAlreadyRefunded(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "charge already refunded code",
			err:  &stripe.Error{Code: stripe.ErrorCodeChargeAlreadyRefunded},
			want: true,
		},
		{
			name: "wrapped stripe error",
			err:  fmt.Errorf("refund: %w", &stripe.Error{Code: stripe.ErrorCodeChargeAlreadyRefunded}),
			want: true,
		},
		{
			name: "other stripe error",
			err:  &stripe.Error{Code: stripe.ErrorCodeCardDeclined},
			want: false,
		},
		{
			name: "non-stripe error",
			err:  errors.New("network down"),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isChargeAlreadyRefunded(tt.err))
		})
	}
}
