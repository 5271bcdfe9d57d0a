package directory

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("customer not found")

type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Directory is the read-only customer collaborator. The checkout core only
// ever looks customers up; editing them belongs to the console's CRUD
// screens.
type Directory interface {
	Lookup(ctx context.Context, customerID string) (Customer, error)
}
