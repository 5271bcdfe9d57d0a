package application

import (
	"context"

	"github.com/fieldserve/checkout-core/internal/inventory/domain"
)

type StockRepository interface {
	Level(ctx context.Context, itemID string) (domain.StockLevel, bool, error)
	Decrement(ctx context.Context, itemID string, qty int64) error
}
