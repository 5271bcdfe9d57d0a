package application

import (
	"context"

	"github.com/fieldserve/checkout-core/internal/checkout/domain"
)

// OrderRepository persists the completed order together with its outbox row
// in one transaction, so OrderCreated cannot be emitted without an order or
// vice versa.
type OrderRepository interface {
	SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, headers map[string]string, traceparent string) error
}
