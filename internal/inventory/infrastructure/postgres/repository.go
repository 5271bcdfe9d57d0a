package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fieldserve/checkout-core/internal/inventory/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Level(ctx context.Context, itemID string) (domain.StockLevel, bool, error) {
	var level domain.StockLevel
	err := r.pool.QueryRow(ctx,
		`SELECT item_id, sku, available FROM stock_levels WHERE item_id=$1`, itemID).
		Scan(&level.ItemID, &level.SKU, &level.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StockLevel{}, false, nil
	}
	if err != nil {
		return domain.StockLevel{}, false, err
	}
	return level, true, nil
}

// Decrement refuses to take stock below zero; the guard runs inside the
// UPDATE so concurrent sales cannot race past it.
func (r *Repository) Decrement(ctx context.Context, itemID string, qty int64) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE stock_levels SET available = available - $2, updated_at = now()
		 WHERE item_id = $1 AND available >= $2`, itemID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		level, ok, err := r.Level(ctx, itemID)
		if err != nil {
			return err
		}
		available := int64(0)
		if ok {
			available = level.Available
		}
		return &domain.ShortStockError{ItemID: itemID, Requested: qty, Available: available}
	}
	return nil
}
