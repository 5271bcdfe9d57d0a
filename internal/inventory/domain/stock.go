package domain

import "fmt"

// StockLevel is the sellable quantity inventory currently reports for an
// item. The checkout core reads it as a stock limit; decrements happen here,
// driven by OrderCreated events, never inside the cart.
type StockLevel struct {
	ItemID    string
	SKU       string
	Available int64
}

type ShortStockError struct {
	ItemID    string
	Requested int64
	Available int64
}

func (e *ShortStockError) Error() string {
	return fmt.Sprintf("stock short for %s: requested %d, available %d", e.ItemID, e.Requested, e.Available)
}
