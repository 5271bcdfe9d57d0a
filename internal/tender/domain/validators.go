package domain

import (
	"regexp"
	"strings"

	"github.com/fieldserve/checkout-core/internal/pricing"
)

// Validator checks one method's collected fields during Validating.
type Validator interface {
	Method() Method
	Validate(amountDueCents int64, fields map[string]string) (Outputs, error)
}

// Validators returns the full per-method set in registration order.
func Validators() []Validator {
	return []Validator{
		CashValidator{},
		CardManualValidator{},
		ACHValidator{},
		TapToPayValidator{},
	}
}

type CashValidator struct{}

func (CashValidator) Method() Method { return MethodCash }

func (CashValidator) Validate(amountDueCents int64, fields map[string]string) (Outputs, error) {
	tendered, err := pricing.ParseCents(fields["amountTendered"])
	if err != nil || tendered <= 0 {
		return Outputs{}, &ValidationError{Field: "amountTendered", Reason: "must be a positive amount"}
	}
	if tendered < amountDueCents {
		return Outputs{}, &InsufficientPaymentError{
			AmountDueCents:      amountDueCents,
			AmountTenderedCents: tendered,
		}
	}
	change := tendered - amountDueCents
	return Outputs{ChangeDueCents: &change}, nil
}

// cardFields are opaque to this core; real card validation belongs to the
// gateway. We only insist the operator filled everything in.
var cardFields = []string{"cardNumber", "expMonth", "expYear", "cvv"}

type CardManualValidator struct{}

func (CardManualValidator) Method() Method { return MethodCardManual }

func (CardManualValidator) Validate(amountDueCents int64, fields map[string]string) (Outputs, error) {
	for _, f := range cardFields {
		if strings.TrimSpace(fields[f]) == "" {
			return Outputs{}, &ValidationError{Field: f, Reason: "required"}
		}
	}
	return Outputs{}, nil
}

var routingNumberRe = regexp.MustCompile(`^\d{9}$`)

type ACHValidator struct{}

func (ACHValidator) Method() Method { return MethodACH }

func (ACHValidator) Validate(amountDueCents int64, fields map[string]string) (Outputs, error) {
	// Authorization is checked first so the operator sees the consent
	// problem before any field-level nit.
	if fields["authorized"] != "true" {
		return Outputs{}, &ValidationError{Field: "authorized", Reason: "customer authorization is required for ACH payments"}
	}
	if !routingNumberRe.MatchString(fields["routingNumber"]) {
		return Outputs{}, &ValidationError{Field: "routingNumber", Reason: "must be exactly 9 digits"}
	}
	for _, f := range []string{"accountNumber", "nameOnCheck", "zipCode"} {
		if strings.TrimSpace(fields[f]) == "" {
			return Outputs{}, &ValidationError{Field: f, Reason: "required"}
		}
	}
	return Outputs{}, nil
}

// TapToPayValidator has nothing to check: the terminal interaction is one
// opaque collaborator call made after validation.
type TapToPayValidator struct{}

func (TapToPayValidator) Method() Method { return MethodTapToPay }

func (TapToPayValidator) Validate(amountDueCents int64, fields map[string]string) (Outputs, error) {
	return Outputs{}, nil
}
