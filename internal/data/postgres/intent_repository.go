package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/platform/persistence"
)

// IntentRepository implements the intent.Repository interface for PostgreSQL
type IntentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewIntentRepository creates a new PostgreSQL intent repository
func NewIntentRepository(logger *slog.Logger, db *persistence.PostgresDB) intent.Repository {
	return &IntentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations.
// This ensures intent creation is atomic with other database operations.
func (r *IntentRepository) WithTx(tx pgx.Tx) intent.Repository {
	return &IntentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new intent in pending status.
// The intent will be picked up by the next settlement cycle.
func (r *IntentRepository) Create(ctx context.Context, in *intent.Intent) error {
	query := `
		INSERT INTO transactions (id, kind, status, from_address, to_address, reference_id, hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		in.ID,
		in.Kind,
		in.Status,
		in.From,
		in.To,
		in.ReferenceID,
		in.Hash,
		in.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create intent",
			"intent_id", in.ID.String(),
			"kind", string(in.Kind),
			"error", err,
		)
		return fmt.Errorf("failed to create intent: %w", err)
	}

	return nil
}

// GetByID retrieves an intent by its unique identifier.
// Returns ErrIntentNotFound if the intent doesn't exist.
func (r *IntentRepository) GetByID(ctx context.Context, id uuid.UUID) (*intent.Intent, error) {
	query := `
		SELECT id, kind, status, from_address, to_address, reference_id, hash, created_at
		FROM transactions
		WHERE id = $1
	`

	var in intent.Intent
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&in.ID,
		&in.Kind,
		&in.Status,
		&in.From,
		&in.To,
		&in.ReferenceID,
		&in.Hash,
		&in.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, intent.ErrIntentNotFound{ID: id}
		}
		r.logger.Error("Failed to get intent", "intent_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get intent: %w", err)
	}

	return &in, nil
}

// GetPendingByKind retrieves pending intents of one kind ordered by creation
// time. The settlement cycle relies on this FIFO order when it allocates
// nonces. A limit <= 0 disables the cap.
func (r *IntentRepository) GetPendingByKind(ctx context.Context, kind shared.IntentKind, limit int) ([]*intent.Intent, error) {
	query := `
		SELECT id, kind, status, from_address, to_address, reference_id, hash, created_at
		FROM transactions
		WHERE status = $1 AND kind = $2
		ORDER BY created_at ASC
	`
	args := []interface{}{shared.IntentStatusPending, kind}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get pending intents", "kind", string(kind), "error", err)
		return nil, fmt.Errorf("failed to get pending intents: %w", err)
	}
	defer rows.Close()

	var intents []*intent.Intent
	for rows.Next() {
		var in intent.Intent
		err := rows.Scan(
			&in.ID,
			&in.Kind,
			&in.Status,
			&in.From,
			&in.To,
			&in.ReferenceID,
			&in.Hash,
			&in.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan intent", "error", err)
			return nil, fmt.Errorf("failed to scan intent: %w", err)
		}
		intents = append(intents, &in)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over intents", "error", err)
		return nil, fmt.Errorf("error iterating over intents: %w", err)
	}

	return intents, nil
}

// GetPendingVoucherWork retrieves pending voucher intents joined with the
// voucher rows they reference, so the cycle can group work per contract
// without a second round trip.
func (r *IntentRepository) GetPendingVoucherWork(ctx context.Context, kind shared.IntentKind, limit int) ([]*intent.VoucherWork, error) {
	query := `
		SELECT t.id, t.kind, t.status, t.from_address, t.to_address, t.reference_id, t.hash, t.created_at,
		       v.id, v.contract_id, v.voucher_id, v.owner, v.value
		FROM transactions t
		JOIN vouchers v ON v.id = t.reference_id
		WHERE t.status = $1 AND t.kind = $2
		ORDER BY t.created_at ASC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query, shared.IntentStatusPending, kind, limit)
	if err != nil {
		r.logger.Error("Failed to get pending voucher work", "kind", string(kind), "error", err)
		return nil, fmt.Errorf("failed to get pending voucher work: %w", err)
	}
	defer rows.Close()

	var work []*intent.VoucherWork
	for rows.Next() {
		var w intent.VoucherWork
		err := rows.Scan(
			&w.ID,
			&w.Kind,
			&w.Status,
			&w.From,
			&w.To,
			&w.ReferenceID,
			&w.Hash,
			&w.CreatedAt,
			&w.VoucherID,
			&w.ContractID,
			&w.OnChainID,
			&w.OwnerAddress,
			&w.Value,
		)
		if err != nil {
			r.logger.Error("Failed to scan voucher work", "error", err)
			return nil, fmt.Errorf("failed to scan voucher work: %w", err)
		}
		work = append(work, &w)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over voucher work", "error", err)
		return nil, fmt.Errorf("error iterating over voucher work: %w", err)
	}

	return work, nil
}

// UpdateStatus writes the terminal outcome of a single intent.
// Returns ErrIntentNotFound if the intent doesn't exist.
func (r *IntentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.IntentStatus, hash *string) error {
	query := `
		UPDATE transactions
		SET status = $1, hash = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, hash, id)
	if err != nil {
		r.logger.Error("Failed to update intent status",
			"intent_id", id.String(),
			"status", string(status),
			"error", err,
		)
		return fmt.Errorf("failed to update intent status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return intent.ErrIntentNotFound{ID: id}
	}

	return nil
}

// UpdateStatusBulk writes one outcome across every intent settled by the same
// on-chain call. All rows in an atomic batch share the same hash.
func (r *IntentRepository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status shared.IntentStatus, hash *string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE transactions
		SET status = $1, hash = $2
		WHERE id = ANY($3)
	`

	result, err := r.querier.Exec(ctx, query, status, hash, ids)
	if err != nil {
		r.logger.Error("Failed to bulk update intent status",
			"count", len(ids),
			"status", string(status),
			"error", err,
		)
		return fmt.Errorf("failed to bulk update intent status: %w", err)
	}

	if int(result.RowsAffected()) != len(ids) {
		r.logger.Warn("Bulk intent update touched fewer rows than requested",
			"requested", len(ids),
			"updated", result.RowsAffected(),
		)
	}

	return nil
}

// HasActiveRedeem reports whether a redeem intent already references the
// voucher in PENDING or SUCCESS status. Failed redeems don't count; the
// voucher may be retried.
func (r *IntentRepository) HasActiveRedeem(ctx context.Context, voucherID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE reference_id = $1 AND kind = $2 AND status IN ($3, $4)
		)
	`

	var exists bool
	err := r.querier.QueryRow(ctx, query,
		voucherID,
		shared.IntentKindRedeemVoucher,
		shared.IntentStatusPending,
		shared.IntentStatusSuccess,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check active redeem", "voucher_id", voucherID.String(), "error", err)
		return false, fmt.Errorf("failed to check active redeem: %w", err)
	}

	return exists, nil
}

// ListByStatus retrieves intents with the given status, newest first
func (r *IntentRepository) ListByStatus(ctx context.Context, status shared.IntentStatus, limit, offset int) ([]*intent.Intent, error) {
	query := `
		SELECT id, kind, status, from_address, to_address, reference_id, hash, created_at
		FROM transactions
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list intents by status", "status", string(status), "error", err)
		return nil, fmt.Errorf("failed to list intents by status: %w", err)
	}
	defer rows.Close()

	var intents []*intent.Intent
	for rows.Next() {
		var in intent.Intent
		err := rows.Scan(
			&in.ID,
			&in.Kind,
			&in.Status,
			&in.From,
			&in.To,
			&in.ReferenceID,
			&in.Hash,
			&in.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan intent", "error", err)
			return nil, fmt.Errorf("failed to scan intent: %w", err)
		}
		intents = append(intents, &in)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over intents", "error", err)
		return nil, fmt.Errorf("error iterating over intents: %w", err)
	}

	return intents, nil
}

// Requeue moves a terminal-error intent back to PENDING so the next cycle
// retries it. PENDING and SUCCESS rows are left untouched.
func (r *IntentRepository) Requeue(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE transactions
		SET status = $1, hash = NULL
		WHERE id = $2 AND status NOT IN ($1, $3)
	`

	result, err := r.querier.Exec(ctx, query, shared.IntentStatusPending, id, shared.IntentStatusSuccess)
	if err != nil {
		r.logger.Error("Failed to requeue intent", "intent_id", id.String(), "error", err)
		return fmt.Errorf("failed to requeue intent: %w", err)
	}

	if result.RowsAffected() == 0 {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return intent.ErrNotRequeueable{ID: id, Status: current.Status}
	}

	return nil
}
