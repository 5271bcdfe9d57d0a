package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	checkoutdomain "github.com/fieldserve/checkout-core/internal/checkout/domain"
	"github.com/fieldserve/checkout-core/internal/inventory/domain"
)

type fakeRepo struct {
	levels     map[string]int64
	decrements []string
}

func (f *fakeRepo) Level(ctx context.Context, itemID string) (domain.StockLevel, bool, error) {
	available, ok := f.levels[itemID]
	if !ok {
		return domain.StockLevel{}, false, nil
	}
	return domain.StockLevel{ItemID: itemID, Available: available}, true, nil
}

func (f *fakeRepo) Decrement(ctx context.Context, itemID string, qty int64) error {
	available := f.levels[itemID]
	if available < qty {
		return &domain.ShortStockError{ItemID: itemID, Requested: qty, Available: available}
	}
	f.levels[itemID] = available - qty
	f.decrements = append(f.decrements, itemID)
	return nil
}

func TestStockLimit(t *testing.T) {
	svc := NewService(slog.New(slog.DiscardHandler), &fakeRepo{levels: map[string]int64{"pump": 4}})
	ctx := context.Background()

	limit, ok, err := svc.StockLimit(ctx, "pump")
	if err != nil || !ok || limit != 4 {
		t.Fatalf("got limit=%d ok=%v err=%v", limit, ok, err)
	}

	// Untracked items report no limit rather than zero stock.
	_, ok, err = svc.StockLimit(ctx, "ghost")
	if err != nil || ok {
		t.Fatalf("expected untracked, got ok=%v err=%v", ok, err)
	}
}

func TestApplySaleDecrementsEveryLine(t *testing.T) {
	repo := &fakeRepo{levels: map[string]int64{"pump": 4, "svc": 9}}
	svc := NewService(slog.New(slog.DiscardHandler), repo)

	err := svc.ApplySale(context.Background(), checkoutdomain.OrderCreated{
		OrderID: "ord-1",
		Lines: []checkoutdomain.OrderLine{
			{ItemID: "pump", Quantity: 2},
			{ItemID: "svc", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.levels["pump"] != 2 || repo.levels["svc"] != 8 {
		t.Fatalf("unexpected levels: %v", repo.levels)
	}
}

func TestApplySaleStopsOnShortStock(t *testing.T) {
	repo := &fakeRepo{levels: map[string]int64{"pump": 1}}
	svc := NewService(slog.New(slog.DiscardHandler), repo)

	err := svc.ApplySale(context.Background(), checkoutdomain.OrderCreated{
		OrderID: "ord-1",
		Lines:   []checkoutdomain.OrderLine{{ItemID: "pump", Quantity: 5}},
	})
	var short *domain.ShortStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected ShortStockError, got %v", err)
	}
	if repo.levels["pump"] != 1 {
		t.Fatalf("short sale mutated stock: %v", repo.levels)
	}
}
