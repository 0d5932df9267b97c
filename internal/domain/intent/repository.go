package intent

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

// Repository defines persistence operations for intents
type Repository interface {
	// WithTx returns a repository bound to the given transaction
	WithTx(tx pgx.Tx) Repository

	// Create inserts a new intent row
	Create(ctx context.Context, in *Intent) error

	// GetByID retrieves an intent by id
	GetByID(ctx context.Context, id uuid.UUID) (*Intent, error)

	// GetPendingByKind returns PENDING intents of one kind in insertion
	// order. A limit <= 0 means no limit.
	GetPendingByKind(ctx context.Context, kind shared.IntentKind, limit int) ([]*Intent, error)

	// GetPendingVoucherWork returns PENDING intents of a voucher kind joined
	// with their voucher rows, in insertion order, capped at limit.
	GetPendingVoucherWork(ctx context.Context, kind shared.IntentKind, limit int) ([]*VoucherWork, error)

	// UpdateStatus writes the terminal outcome of a single intent
	UpdateStatus(ctx context.Context, id uuid.UUID, status shared.IntentStatus, hash *string) error

	// UpdateStatusBulk writes one outcome across every intent settled by the
	// same on-chain call
	UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status shared.IntentStatus, hash *string) error

	// HasActiveRedeem reports whether a non-failed REDEEM_VOUCHER intent
	// already references the voucher (PENDING or SUCCESS)
	HasActiveRedeem(ctx context.Context, voucherID uuid.UUID) (bool, error)

	// ListByStatus returns intents with the given status, newest first
	ListByStatus(ctx context.Context, status shared.IntentStatus, limit, offset int) ([]*Intent, error)

	// Requeue moves a terminal-error intent back to PENDING. It refuses to
	// touch PENDING or SUCCESS rows.
	Requeue(ctx context.Context, id uuid.UUID) error
}
