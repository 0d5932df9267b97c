package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/voucher"
	"github.com/mealvoucher-platform/internal/platform/persistence"
)

// VoucherRepository implements the voucher.Repository interface for PostgreSQL
type VoucherRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewVoucherRepository creates a new PostgreSQL voucher repository
func NewVoucherRepository(logger *slog.Logger, db *persistence.PostgresDB) voucher.Repository {
	return &VoucherRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations.
// This ensures voucher creation is atomic with its generation intent.
func (r *VoucherRepository) WithTx(tx pgx.Tx) voucher.Repository {
	return &VoucherRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new voucher and fills in the sequence-assigned on-chain id.
// The numeric id is what the contract knows the voucher by.
func (r *VoucherRepository) Create(ctx context.Context, v *voucher.Voucher) error {
	query := `
		INSERT INTO vouchers (id, status, owner, value, contract_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING voucher_id
	`

	err := r.querier.QueryRow(ctx, query,
		v.ID,
		v.Status,
		v.Owner,
		v.Value,
		v.ContractID,
		v.CreatedAt,
	).Scan(&v.OnChainID)
	if err != nil {
		r.logger.Error("Failed to create voucher",
			"voucher_id", v.ID.String(),
			"contract_id", v.ContractID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	return nil
}

// GetByID retrieves a voucher by its unique identifier.
// Returns ErrVoucherNotFound if the voucher doesn't exist.
func (r *VoucherRepository) GetByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	query := `
		SELECT id, status, owner, value, voucher_id, contract_id, created_at
		FROM vouchers
		WHERE id = $1
	`

	var v voucher.Voucher
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.Status,
		&v.Owner,
		&v.Value,
		&v.OnChainID,
		&v.ContractID,
		&v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, voucher.ErrVoucherNotFound{ID: id}
		}
		r.logger.Error("Failed to get voucher", "voucher_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}

	return &v, nil
}

// UpdateStatus sets the voucher status by row id.
// Returns ErrVoucherNotFound if the voucher doesn't exist.
func (r *VoucherRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.VoucherStatus) error {
	query := `
		UPDATE vouchers
		SET status = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update voucher status",
			"voucher_id", id.String(),
			"status", string(status),
			"error", err,
		)
		return fmt.Errorf("failed to update voucher status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return voucher.ErrVoucherNotFound{ID: id}
	}

	return nil
}

// UpdateStatusByOnChainID sets the status of the voucher matched by
// (owner, on-chain id). The status guard makes re-applying the same chain
// event a no-op, so the listener and the settlement cycle stay idempotent
// against each other. Returns the number of rows touched.
func (r *VoucherRepository) UpdateStatusByOnChainID(ctx context.Context, owner string, onChainID uint64, status shared.VoucherStatus) (int64, error) {
	query := `
		UPDATE vouchers
		SET status = $1
		WHERE owner = $2 AND voucher_id = $3 AND status != $1
	`

	result, err := r.querier.Exec(ctx, query, status, owner, onChainID)
	if err != nil {
		r.logger.Error("Failed to update voucher status by on-chain id",
			"owner", owner,
			"onchain_id", onChainID,
			"status", string(status),
			"error", err,
		)
		return 0, fmt.Errorf("failed to update voucher status by on-chain id: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListByOwner retrieves vouchers held by an address, newest first
func (r *VoucherRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*voucher.Voucher, error) {
	query := `
		SELECT id, status, owner, value, voucher_id, contract_id, created_at
		FROM vouchers
		WHERE owner = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, owner, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list vouchers by owner", "owner", owner, "error", err)
		return nil, fmt.Errorf("failed to list vouchers by owner: %w", err)
	}
	defer rows.Close()

	var vouchers []*voucher.Voucher
	for rows.Next() {
		var v voucher.Voucher
		err := rows.Scan(
			&v.ID,
			&v.Status,
			&v.Owner,
			&v.Value,
			&v.OnChainID,
			&v.ContractID,
			&v.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan voucher", "error", err)
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, &v)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over vouchers", "error", err)
		return nil, fmt.Errorf("error iterating over vouchers: %w", err)
	}

	return vouchers, nil
}
