package domain

import (
	"errors"
	"fmt"

	"github.com/fieldserve/checkout-core/internal/pricing"
)

var (
	ErrNoAttempt         = errors.New("no tender attempt in progress")
	ErrAttemptInProgress = errors.New("a tender attempt is already being validated")
	ErrUnknownMethod     = errors.New("unknown tender method")
)

// ValidationError is a user-correctable input problem. It is surfaced inline
// and never moves the checkout flow.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// InsufficientPaymentError blocks cash completion when the tendered amount
// does not cover what is due.
type InsufficientPaymentError struct {
	AmountDueCents      int64
	AmountTenderedCents int64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("tendered %s but %s is due",
		pricing.FormatCents(e.AmountTenderedCents), pricing.FormatCents(e.AmountDueCents))
}

// GatewayError is reported by the external payment collaborator. Declines
// and transport failures both land here; the attempt returns to detail
// collection so the user can retry.
type GatewayError struct {
	Code string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error: %s", e.Code)
}
