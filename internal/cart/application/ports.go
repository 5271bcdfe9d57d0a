package application

import "context"

// StockReader answers the sellable limit for an item. ok is false when
// inventory has no bound for the item.
type StockReader interface {
	StockLimit(ctx context.Context, itemID string) (limit int64, ok bool, err error)
}
