package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/platform/persistence"
)

// ContractRepository implements the contract.Repository interface for PostgreSQL
type ContractRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewContractRepository creates a new PostgreSQL contract repository
func NewContractRepository(logger *slog.Logger, db *persistence.PostgresDB) contract.Repository {
	return &ContractRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *ContractRepository) WithTx(tx pgx.Tx) contract.Repository {
	return &ContractRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new contract with a null on-chain address.
// Returns ErrDuplicateCountry if a contract for the country already exists.
func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	query := `
		INSERT INTO contracts (id, country_code, voucher_price, fees, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		c.ID,
		c.CountryCode,
		c.VoucherPrice,
		c.Fees,
		c.Address,
		c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return contract.ErrDuplicateCountry{CountryCode: c.CountryCode}
		}
		r.logger.Error("Failed to create contract",
			"contract_id", c.ID.String(),
			"country_code", c.CountryCode,
			"error", err,
		)
		return fmt.Errorf("failed to create contract: %w", err)
	}

	return nil
}

// GetByID retrieves a contract by its unique identifier.
// Returns ErrContractNotFound if the contract doesn't exist.
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	query := `
		SELECT id, country_code, voucher_price, fees, address, created_at
		FROM contracts
		WHERE id = $1
	`

	var c contract.Contract
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.CountryCode,
		&c.VoucherPrice,
		&c.Fees,
		&c.Address,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contract.ErrContractNotFound{ID: id}
		}
		r.logger.Error("Failed to get contract", "contract_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	return &c, nil
}

// GetByIDs resolves a set of contract ids in a single query.
// Missing ids are simply absent from the returned map.
func (r *ContractRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*contract.Contract, error) {
	result := make(map[uuid.UUID]*contract.Contract, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, country_code, voucher_price, fees, address, created_at
		FROM contracts
		WHERE id = ANY($1)
	`

	rows, err := r.querier.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error("Failed to get contracts by ids", "count", len(ids), "error", err)
		return nil, fmt.Errorf("failed to get contracts by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c contract.Contract
		err := rows.Scan(
			&c.ID,
			&c.CountryCode,
			&c.VoucherPrice,
			&c.Fees,
			&c.Address,
			&c.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan contract", "error", err)
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		result[c.ID] = &c
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over contracts", "error", err)
		return nil, fmt.Errorf("error iterating over contracts: %w", err)
	}

	return result, nil
}

// List retrieves all contracts ordered by creation time
func (r *ContractRepository) List(ctx context.Context) ([]*contract.Contract, error) {
	return r.list(ctx, `
		SELECT id, country_code, voucher_price, fees, address, created_at
		FROM contracts
		ORDER BY created_at ASC
	`)
}

// ListDeployed retrieves contracts that already have an on-chain address.
// Only these can receive voucher, fee and price operations.
func (r *ContractRepository) ListDeployed(ctx context.Context) ([]*contract.Contract, error) {
	return r.list(ctx, `
		SELECT id, country_code, voucher_price, fees, address, created_at
		FROM contracts
		WHERE address IS NOT NULL
		ORDER BY created_at ASC
	`)
}

func (r *ContractRepository) list(ctx context.Context, query string) ([]*contract.Contract, error) {
	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list contracts", "error", err)
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*contract.Contract
	for rows.Next() {
		var c contract.Contract
		err := rows.Scan(
			&c.ID,
			&c.CountryCode,
			&c.VoucherPrice,
			&c.Fees,
			&c.Address,
			&c.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan contract", "error", err)
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, &c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over contracts", "error", err)
		return nil, fmt.Errorf("error iterating over contracts: %w", err)
	}

	return contracts, nil
}

// SetAddress writes the on-chain address after a successful deployment
func (r *ContractRepository) SetAddress(ctx context.Context, id uuid.UUID, address string) error {
	return r.update(ctx, id, `UPDATE contracts SET address = $1 WHERE id = $2`, address)
}

// UpdateFees persists the new management fee percentage
func (r *ContractRepository) UpdateFees(ctx context.Context, id uuid.UUID, fees float64) error {
	return r.update(ctx, id, `UPDATE contracts SET fees = $1 WHERE id = $2`, fees)
}

// UpdatePrice persists the new voucher price
func (r *ContractRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price float64) error {
	return r.update(ctx, id, `UPDATE contracts SET voucher_price = $1 WHERE id = $2`, price)
}

func (r *ContractRepository) update(ctx context.Context, id uuid.UUID, query string, value interface{}) error {
	result, err := r.querier.Exec(ctx, query, value, id)
	if err != nil {
		r.logger.Error("Failed to update contract", "contract_id", id.String(), "error", err)
		return fmt.Errorf("failed to update contract: %w", err)
	}

	if result.RowsAffected() == 0 {
		return contract.ErrContractNotFound{ID: id}
	}

	return nil
}
