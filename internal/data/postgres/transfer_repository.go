package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mealvoucher-platform/internal/domain/transfer"
	"github.com/mealvoucher-platform/internal/platform/persistence"
)

// TransferRepository implements the transfer.Repository interface for PostgreSQL
type TransferRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransferRepository creates a new PostgreSQL transfer repository
func NewTransferRepository(logger *slog.Logger, db *persistence.PostgresDB) transfer.Repository {
	return &TransferRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create inserts a transfer row mirroring an observed chain event
func (r *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	query := `
		INSERT INTO transfers (id, contract_id, from_address, to_address, value, type, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.ContractID,
		t.From,
		t.To,
		t.Value,
		t.Type,
		t.TxHash,
		t.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transfer",
			"transfer_id", t.ID.String(),
			"tx_hash", t.TxHash,
			"error", err,
		)
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	return nil
}

// ListByContract retrieves transfers for a contract, newest first
func (r *TransferRepository) ListByContract(ctx context.Context, contractID uuid.UUID, limit, offset int) ([]*transfer.Transfer, error) {
	query := `
		SELECT id, contract_id, from_address, to_address, value, type, tx_hash, created_at
		FROM transfers
		WHERE contract_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, contractID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transfers", "contract_id", contractID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*transfer.Transfer
	for rows.Next() {
		var t transfer.Transfer
		err := rows.Scan(
			&t.ID,
			&t.ContractID,
			&t.From,
			&t.To,
			&t.Value,
			&t.Type,
			&t.TxHash,
			&t.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan transfer", "error", err)
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, &t)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transfers", "error", err)
		return nil, fmt.Errorf("error iterating over transfers: %w", err)
	}

	return transfers, nil
}
