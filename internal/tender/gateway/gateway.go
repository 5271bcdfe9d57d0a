package gateway

import (
	"context"

	"github.com/fieldserve/checkout-core/internal/tender/domain"
)

type Result string

const (
	ResultSuccess  Result = "success"
	ResultDeclined Result = "declined"
	ResultError    Result = "error"
)

// Gateway is the external payment collaborator. Submit is the flow's only
// suspension point; while it is outstanding the attempt stays in Validating
// and no second attempt may start for the session.
type Gateway interface {
	Submit(ctx context.Context, method domain.Method, amountDueCents int64, fields map[string]string) (Result, error)
}
