package application

import (
	"context"
	"log/slog"

	checkoutdomain "github.com/fieldserve/checkout-core/internal/checkout/domain"
)

type Service struct {
	log  *slog.Logger
	repo StockRepository
}

func NewService(log *slog.Logger, repo StockRepository) *Service {
	return &Service{log: log, repo: repo}
}

// StockLimit satisfies the cart's StockReader port.
func (s *Service) StockLimit(ctx context.Context, itemID string) (int64, bool, error) {
	level, ok, err := s.repo.Level(ctx, itemID)
	if err != nil || !ok {
		return 0, false, err
	}
	return level.Available, true, nil
}

// ApplySale decrements stock for every line of a completed order. Duplicate
// deliveries are already filtered upstream by the consumer's idempotency
// check, so each decrement applies once.
func (s *Service) ApplySale(ctx context.Context, event checkoutdomain.OrderCreated) error {
	for _, line := range event.Lines {
		if err := s.repo.Decrement(ctx, line.ItemID, line.Quantity); err != nil {
			s.log.Error("stock decrement failed", "order_id", event.OrderID, "item_id", line.ItemID, "err", err)
			return err
		}
	}
	s.log.Info("stock decremented", "order_id", event.OrderID, "lines", len(event.Lines))
	return nil
}
