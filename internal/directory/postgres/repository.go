package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fieldserve/checkout-core/internal/directory"
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

func (r *Repository) Lookup(ctx context.Context, customerID string) (directory.Customer, error) {
	var c directory.Customer
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone FROM customers WHERE id=$1`, customerID).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return directory.Customer{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Customer{}, err
	}
	return c, nil
}
