package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fieldserve/checkout-core/internal/cart/domain"
	"golang.org/x/sync/errgroup"
)

// Service owns the register's live cart and serializes every mutation, so
// reads never observe a half-applied change even though the HTTP layer runs
// handlers on many goroutines.
type Service struct {
	mu    sync.Mutex
	log   *slog.Logger
	cart  *domain.Cart
	stock StockReader
}

func NewService(log *slog.Logger, stock StockReader) *Service {
	return &Service{
		log:   log,
		cart:  domain.NewCart(),
		stock: stock,
	}
}

func (s *Service) AddItem(ctx context.Context, item domain.LineItem, qty int64) (domain.LineItem, error) {
	limit, ok, err := s.stock.StockLimit(ctx, item.ID)
	if err != nil {
		return domain.LineItem{}, err
	}
	if ok {
		item.StockLimit = limit
	} else {
		item.StockLimit = domain.NoStockLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.AddItem(item, qty); err != nil {
		return domain.LineItem{}, err
	}
	line, _ := s.cart.Line(item.ID)
	s.log.Debug("cart item added", "item_id", item.ID, "quantity", line.Quantity)
	return line, nil
}

func (s *Service) SetQuantity(ctx context.Context, id string, qty int64) (domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.SetQuantity(id, qty); err != nil {
		return domain.LineItem{}, err
	}
	line, _ := s.cart.Line(id)
	return line, nil
}

func (s *Service) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.RemoveItem(id)
}

func (s *Service) SelectCustomer(ctx context.Context, customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.SelectCustomer(customerID)
}

func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
}

func (s *Service) TotalItemCount(ctx context.Context) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItemCount()
}

func (s *Service) Lines(ctx context.Context) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Service) CustomerID(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.CustomerID()
}

func (s *Service) Empty(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Empty()
}

// RefreshStockLimits re-reads every line's limit from inventory, fanning the
// lookups out concurrently. Quantities already in the cart are clamped down
// if a limit shrank since the line was added. Called on entry to checkout.
func (s *Service) RefreshStockLimits(ctx context.Context) error {
	s.mu.Lock()
	lines := s.cart.Lines()
	s.mu.Unlock()

	type result struct {
		id    string
		limit int64
	}
	results := make([]result, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range lines {
		g.Go(func() error {
			limit, ok, err := s.stock.StockLimit(ctx, lines[i].ID)
			if err != nil {
				return err
			}
			if !ok {
				limit = domain.NoStockLimit
			}
			results[i] = result{id: lines[i].ID, limit: limit}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		// A line removed while we were looking it up is not an error.
		_ = s.cart.SetStockLimit(r.id, r.limit)
	}
	return nil
}
