package domain

import "time"

// OrderLine is the persisted shape of a sold cart line.
type OrderLine struct {
	ItemID         string `json:"item_id"`
	SKU            string `json:"sku"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type Order struct {
	ID             string
	CustomerID     string
	Lines          []OrderLine
	SubtotalCents  int64
	TaxCents       int64
	TotalCents     int64
	Method         string
	ChangeDueCents *int64
	CreatedAt      time.Time
}

// OrderCreated is emitted exactly once per completed checkout. Inventory
// decrements stock in response to it; this core never touches stock itself.
type OrderCreated struct {
	OrderID        string      `json:"order_id"`
	CustomerID     string      `json:"customer_id"`
	Lines          []OrderLine `json:"lines"`
	SubtotalCents  int64       `json:"subtotal_cents"`
	TaxCents       int64       `json:"tax_cents"`
	TotalCents     int64       `json:"total_cents"`
	Method         string      `json:"method"`
	ChangeDueCents *int64      `json:"change_due_cents,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}
