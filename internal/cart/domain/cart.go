package domain

// NoStockLimit marks a line whose sellable quantity is unbounded.
const NoStockLimit int64 = 0

type LineItem struct {
	ID             string
	Name           string
	SKU            string
	UnitPriceCents int64
	Quantity       int64
	StockLimit     int64
	ImageRef       string
}

func (li LineItem) limited() bool { return li.StockLimit > NoStockLimit }

// Cart holds the current register's line items in insertion order plus the
// selected customer. It is exclusively owned by the active session; callers
// go through CartService, which serializes access.
type Cart struct {
	lines      []LineItem
	index      map[string]int
	customerID string
}

func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// AddItem inserts a new line or accumulates quantity onto an existing one.
// The stored quantity is clamped to [1, stockLimit]; a line never comes into
// existence with quantity zero.
func (c *Cart) AddItem(item LineItem, qty int64) error {
	if item.ID == "" {
		return ErrInvalidItem
	}
	if item.UnitPriceCents < 0 {
		return ErrNegativePrice
	}

	if i, ok := c.index[item.ID]; ok {
		line := &c.lines[i]
		line.Quantity = clampQuantity(line.Quantity+qty, line.StockLimit, line.limited())
		return nil
	}

	item.Quantity = clampQuantity(qty, item.StockLimit, item.limited())
	c.index[item.ID] = len(c.lines)
	c.lines = append(c.lines, item)
	return nil
}

// SetQuantity applies qty exactly. Requests above the stock limit are
// rejected with InsufficientStockError and leave the line untouched, so the
// caller always learns the difference between "applied" and "would have been
// clamped". Requests below one are raised to one.
func (c *Cart) SetQuantity(id string, qty int64) error {
	i, ok := c.index[id]
	if !ok {
		return ErrUnknownItem
	}
	line := &c.lines[i]
	if line.limited() && qty > line.StockLimit {
		return &InsufficientStockError{ItemID: id, Requested: qty, Available: line.StockLimit}
	}
	if qty < 1 {
		qty = 1
	}
	line.Quantity = qty
	return nil
}

func (c *Cart) RemoveItem(id string) error {
	i, ok := c.index[id]
	if !ok {
		return ErrUnknownItem
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ID] = j
	}
	return nil
}

func (c *Cart) SelectCustomer(customerID string) {
	c.customerID = customerID
}

func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
	c.customerID = ""
}

// TotalItemCount is the badge count: the sum of all line quantities.
func (c *Cart) TotalItemCount() int64 {
	var n int64
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

func (c *Cart) CustomerID() string { return c.customerID }

func (c *Cart) Empty() bool { return len(c.lines) == 0 }

// Lines returns a copy in insertion order.
func (c *Cart) Lines() []LineItem {
	out := make([]LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Line(id string) (LineItem, bool) {
	i, ok := c.index[id]
	if !ok {
		return LineItem{}, false
	}
	return c.lines[i], true
}

// SetStockLimit updates a line's limit and re-clamps its quantity downward if
// the new limit is below what is already in the cart.
func (c *Cart) SetStockLimit(id string, limit int64) error {
	i, ok := c.index[id]
	if !ok {
		return ErrUnknownItem
	}
	line := &c.lines[i]
	line.StockLimit = limit
	line.Quantity = clampQuantity(line.Quantity, line.StockLimit, line.limited())
	return nil
}

func clampQuantity(qty, limit int64, limited bool) int64 {
	if qty < 1 {
		qty = 1
	}
	if limited && qty > limit {
		qty = limit
	}
	return qty
}
