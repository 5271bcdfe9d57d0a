package domain

import (
	"errors"
	"testing"
)

func TestAddItem(t *testing.T) {
	t.Run("new line clamps quantity to at least one", func(t *testing.T) {
		c := NewCart()
		if err := c.AddItem(LineItem{ID: "a", UnitPriceCents: 100}, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		line, _ := c.Line("a")
		if line.Quantity != 1 {
			t.Fatalf("expected quantity 1, got %d", line.Quantity)
		}
	})

	t.Run("accumulates onto existing line", func(t *testing.T) {
		c := NewCart()
		_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100}, 2)
		_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100}, 3)
		line, _ := c.Line("a")
		if line.Quantity != 5 {
			t.Fatalf("expected quantity 5, got %d", line.Quantity)
		}
		if len(c.Lines()) != 1 {
			t.Fatalf("expected a single line")
		}
	})

	t.Run("accumulation clamps at stock limit", func(t *testing.T) {
		c := NewCart()
		_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100, StockLimit: 4}, 3)
		_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100, StockLimit: 4}, 3)
		line, _ := c.Line("a")
		if line.Quantity != 4 {
			t.Fatalf("expected quantity clamped to 4, got %d", line.Quantity)
		}
	})

	t.Run("rejects negative price", func(t *testing.T) {
		c := NewCart()
		if err := c.AddItem(LineItem{ID: "a", UnitPriceCents: -1}, 1); !errors.Is(err, ErrNegativePrice) {
			t.Fatalf("expected ErrNegativePrice, got %v", err)
		}
	})

	t.Run("rejects empty id", func(t *testing.T) {
		c := NewCart()
		if err := c.AddItem(LineItem{UnitPriceCents: 100}, 1); !errors.Is(err, ErrInvalidItem) {
			t.Fatalf("expected ErrInvalidItem, got %v", err)
		}
	})
}

func TestSetQuantity(t *testing.T) {
	t.Run("applies exact quantity within limit", func(t *testing.T) {
		c := NewCart()
		_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100, StockLimit: 10}, 1)
		if err := c.SetQuantity("a", 7); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		line, _ := c.Line("a")
		if line.Quantity != 7 {
			t.Fatalf("expected 7, got %d", line.Quantity)
		}
	})

	t.Run("rejects above stock limit and keeps cart unchanged", func(t *testing.T) {
		c := NewCart()
		_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100, StockLimit: 5}, 2)
		err := c.SetQuantity("a", 6)
		var stockErr *InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		if stockErr.Requested != 6 || stockErr.Available != 5 {
			t.Fatalf("unexpected error detail: %+v", stockErr)
		}
		line, _ := c.Line("a")
		if line.Quantity != 2 {
			t.Fatalf("cart changed: expected 2, got %d", line.Quantity)
		}
	})

	t.Run("raises below-one to one", func(t *testing.T) {
		c := NewCart()
		_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100}, 3)
		if err := c.SetQuantity("a", 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		line, _ := c.Line("a")
		if line.Quantity != 1 {
			t.Fatalf("expected 1, got %d", line.Quantity)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		c := NewCart()
		if err := c.SetQuantity("ghost", 1); !errors.Is(err, ErrUnknownItem) {
			t.Fatalf("expected ErrUnknownItem, got %v", err)
		}
	})
}

func TestQuantityInvariantUnderMixedOperations(t *testing.T) {
	c := NewCart()
	_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100, StockLimit: 6}, 2)
	ops := []func(){
		func() { _ = c.AddItem(LineItem{ID: "a", StockLimit: 6}, 3) },
		func() { _ = c.SetQuantity("a", 9) },
		func() { _ = c.AddItem(LineItem{ID: "a", StockLimit: 6}, 100) },
		func() { _ = c.SetQuantity("a", -4) },
		func() { _ = c.AddItem(LineItem{ID: "a", StockLimit: 6}, -50) },
	}
	for i, op := range ops {
		op()
		line, ok := c.Line("a")
		if !ok {
			t.Fatalf("line vanished after op %d", i)
		}
		if line.Quantity < 1 || line.Quantity > 6 {
			t.Fatalf("invariant broken after op %d: quantity %d", i, line.Quantity)
		}
	}
}

func TestRemoveItemKeepsInsertionOrder(t *testing.T) {
	c := NewCart()
	for _, id := range []string{"a", "b", "c", "d"} {
		_ = c.AddItem(LineItem{ID: id, UnitPriceCents: 100}, 1)
	}
	if err := c.RemoveItem("b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, line := range c.Lines() {
		got = append(got, line.ID)
	}
	want := []string{"a", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	// Index map must survive the shift.
	if err := c.SetQuantity("d", 2); err != nil {
		t.Fatalf("index stale after remove: %v", err)
	}
	line, _ := c.Line("d")
	if line.Quantity != 2 {
		t.Fatalf("expected 2, got %d", line.Quantity)
	}
}

func TestTotalItemCount(t *testing.T) {
	c := NewCart()
	if c.TotalItemCount() != 0 {
		t.Fatal("empty cart should count zero")
	}
	_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100}, 2)
	_ = c.AddItem(LineItem{ID: "b", UnitPriceCents: 200}, 3)
	if got := c.TotalItemCount(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestClear(t *testing.T) {
	c := NewCart()
	_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100}, 2)
	c.SelectCustomer("cust-1")
	c.Clear()
	if !c.Empty() || c.CustomerID() != "" || c.TotalItemCount() != 0 {
		t.Fatal("clear left state behind")
	}
	// Cart stays usable after clear.
	if err := c.AddItem(LineItem{ID: "a", UnitPriceCents: 100}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetStockLimitReclamps(t *testing.T) {
	c := NewCart()
	_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100}, 8)
	if err := c.SetStockLimit("a", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line, _ := c.Line("a")
	if line.Quantity != 5 {
		t.Fatalf("expected quantity reclamped to 5, got %d", line.Quantity)
	}
}

func TestLinesReturnsCopy(t *testing.T) {
	c := NewCart()
	_ = c.AddItem(LineItem{ID: "a", UnitPriceCents: 100}, 1)
	lines := c.Lines()
	lines[0].Quantity = 99
	line, _ := c.Line("a")
	if line.Quantity != 1 {
		t.Fatal("Lines leaked internal state")
	}
}
