package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownItem   = errors.New("item not in cart")
	ErrInvalidItem   = errors.New("invalid line item")
	ErrNegativePrice = errors.New("unit price must not be negative")
)

// InsufficientStockError reports a quantity request above the stock limit.
// The cart is left unchanged when it is returned.
type InsufficientStockError struct {
	ItemID    string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ItemID, e.Requested, e.Available)
}
