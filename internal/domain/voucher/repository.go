package voucher

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

// Repository defines persistence operations for vouchers
type Repository interface {
	// WithTx returns a repository bound to the given transaction
	WithTx(tx pgx.Tx) Repository

	// Create inserts a voucher row and fills in its sequence-assigned
	// on-chain id
	Create(ctx context.Context, v *Voucher) error

	// GetByID retrieves a voucher by id
	GetByID(ctx context.Context, id uuid.UUID) (*Voucher, error)

	// UpdateStatus sets the voucher status by row id
	UpdateStatus(ctx context.Context, id uuid.UUID, status shared.VoucherStatus) error

	// UpdateStatusByOnChainID sets the status of the voucher matched by
	// (owner, on-chain id). Applying the same status twice is a no-op, which
	// keeps the chain event listener and the settlement cycle idempotent
	// against each other. Returns the number of rows touched.
	UpdateStatusByOnChainID(ctx context.Context, owner string, onChainID uint64, status shared.VoucherStatus) (int64, error)

	// ListByOwner returns vouchers held by an address, newest first
	ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*Voucher, error)
}
