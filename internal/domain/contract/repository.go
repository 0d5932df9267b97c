package contract

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines persistence operations for contracts
type Repository interface {
	// WithTx returns a repository bound to the given transaction
	WithTx(tx pgx.Tx) Repository

	// Create inserts a new contract row with a null address
	Create(ctx context.Context, c *Contract) error

	// GetByID retrieves a contract by id
	GetByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	// GetByIDs resolves a set of contract ids into an id-keyed map in a
	// single query. Missing ids are simply absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Contract, error)

	// List returns all contracts ordered by creation time
	List(ctx context.Context) ([]*Contract, error)

	// ListDeployed returns contracts with a non-null address
	ListDeployed(ctx context.Context) ([]*Contract, error)

	// SetAddress writes the on-chain address after a successful deployment
	SetAddress(ctx context.Context, id uuid.UUID, address string) error

	// UpdateFees persists the new management fee percentage
	UpdateFees(ctx context.Context, id uuid.UUID, fees float64) error

	// UpdatePrice persists the new voucher price
	UpdatePrice(ctx context.Context, id uuid.UUID, price float64) error
}
