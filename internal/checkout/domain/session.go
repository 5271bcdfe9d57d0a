package domain

import (
	"time"

	cartdomain "github.com/fieldserve/checkout-core/internal/cart/domain"
	"github.com/fieldserve/checkout-core/internal/pricing"
)

// Session is the bounded interaction from "begin checkout" to completion or
// cancellation. Snapshot and Totals are frozen the instant payment collection
// starts, so a stray cart mutation can never change the amount being
// collected.
type Session struct {
	ID         string
	State      FlowState
	CustomerID string
	TaxRateBps int64

	Snapshot []cartdomain.LineItem
	Totals   pricing.Totals

	StartedAt  time.Time
	FinishedAt time.Time
}

func NewSession(id string, taxRateBps int64, now time.Time) *Session {
	return &Session{
		ID:         id,
		State:      StateBrowsing,
		TaxRateBps: taxRateBps,
		StartedAt:  now,
	}
}

// Freeze captures the pricing inputs for payment collection.
func (s *Session) Freeze(lines []cartdomain.LineItem, customerID string, totals pricing.Totals) {
	s.Snapshot = make([]cartdomain.LineItem, len(lines))
	copy(s.Snapshot, lines)
	s.CustomerID = customerID
	s.Totals = totals
}
