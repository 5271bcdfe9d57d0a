package gateway

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fieldserve/checkout-core/internal/tender/domain"
)

// Simulated stands in for the card network and the tap-to-pay terminal.
// Cards ending in 0000 decline, mirroring the usual sandbox convention, and
// ACH transfers above the configured ceiling come back as errors so failure
// paths stay exercisable without a real bank.
type Simulated struct {
	log             *slog.Logger
	achCeilingCents int64
}

func NewSimulated(log *slog.Logger) *Simulated {
	return &Simulated{log: log, achCeilingCents: 1_000_000_00}
}

func (g *Simulated) Submit(ctx context.Context, method domain.Method, amountDueCents int64, fields map[string]string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return ResultError, err
	}

	switch method {
	case domain.MethodCash, domain.MethodTapToPay:
		// Cash never reaches a network; the tap terminal is modeled as an
		// immediate success.
		return ResultSuccess, nil
	case domain.MethodCardManual:
		if strings.HasSuffix(fields["cardNumber"], "0000") {
			g.log.Info("simulated card decline", "amount_cents", amountDueCents)
			return ResultDeclined, nil
		}
		return ResultSuccess, nil
	case domain.MethodACH:
		if amountDueCents > g.achCeilingCents {
			return ResultError, nil
		}
		return ResultSuccess, nil
	}
	return ResultError, nil
}
