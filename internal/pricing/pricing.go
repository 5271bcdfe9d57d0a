package pricing

import (
	"github.com/fieldserve/checkout-core/internal/cart/domain"
)

// DefaultTaxRateBps is 8%, expressed in basis points. The engine never holds
// a literal percentage anywhere else; callers inject the rate they were
// configured with.
const DefaultTaxRateBps int64 = 800

type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// Engine derives totals from cart lines. All arithmetic is integer cents;
// display strings exist only at the boundary (see money.go).
type Engine struct {
	taxRateBps int64
}

func NewEngine(taxRateBps int64) *Engine {
	if taxRateBps < 0 {
		taxRateBps = DefaultTaxRateBps
	}
	return &Engine{taxRateBps: taxRateBps}
}

func (e *Engine) TaxRateBps() int64 { return e.taxRateBps }

func (e *Engine) ComputeTotals(lines []domain.LineItem) Totals {
	return e.ComputeTotalsAt(lines, e.taxRateBps)
}

// ComputeTotalsAt prices the lines at an explicit rate so several checkout
// contexts can share one engine.
func (e *Engine) ComputeTotalsAt(lines []domain.LineItem, taxRateBps int64) Totals {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.UnitPriceCents * line.Quantity
	}
	tax := roundHalfUpBps(subtotal, taxRateBps)
	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}

// roundHalfUpBps computes amount*bps/10000 rounded half-up. Amounts are
// non-negative here, so adding half the divisor before truncating is exact.
func roundHalfUpBps(amountCents, bps int64) int64 {
	return (amountCents*bps + 5000) / 10000
}
