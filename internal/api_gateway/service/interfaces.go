package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/transfer"
	"github.com/mealvoucher-platform/internal/domain/voucher"
)

// ContractService defines the interface for contract administration
type ContractService interface {
	// CreateContract stores a new per-country contract together with its
	// deployment intent. Returns ErrDuplicateCountry if the country already
	// has a contract.
	CreateContract(ctx context.Context, countryCode string, voucherPrice, fees float64) (*contract.Contract, error)

	// GetContractByID retrieves a contract by its ID
	GetContractByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error)

	// ListContracts returns all contracts
	ListContracts(ctx context.Context) ([]*contract.Contract, error)

	// UpdateFees stores the new fee percentage and queues the on-chain update
	UpdateFees(ctx context.Context, id uuid.UUID, fees float64) (*contract.Contract, error)

	// UpdatePrice stores the new voucher price and queues the on-chain update
	UpdatePrice(ctx context.Context, id uuid.UUID, price float64) (*contract.Contract, error)

	// OnChainState reads the contract's live state from the chain.
	// Returns ErrContractNotDeployed if the contract has no address yet.
	OnChainState(ctx context.Context, id uuid.UUID) (*chain.ContractState, error)

	// ListTransfers returns the observed fund movements for a contract
	ListTransfers(ctx context.Context, id uuid.UUID, page, perPage int) ([]*transfer.Transfer, error)
}

// VoucherService defines the interface for donations and redemptions
type VoucherService interface {
	// Donate creates voucher rows and their generation intents in one
	// transaction. Each voucher takes the contract's current price as its
	// value.
	Donate(ctx context.Context, contractID uuid.UUID, donor string, recipients []DonationRecipient) ([]*voucher.Voucher, error)

	// GetVoucherByID retrieves a voucher by its ID
	GetVoucherByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error)

	// ListVouchersByOwner returns vouchers held by a wallet, newest first
	ListVouchersByOwner(ctx context.Context, owner string, page, perPage int) ([]*voucher.Voucher, error)

	// Redeem queues a redemption intent for the voucher. Returns
	// ErrRedeemInFlight if a non-failed redemption already targets it, or
	// voucher.ErrNotRedeemable if the voucher is not VALID.
	Redeem(ctx context.Context, voucherID uuid.UUID, merchant string) (*intent.Intent, error)
}

// TransactionService defines the interface for settlement intent queries
type TransactionService interface {
	// GetByID retrieves an intent by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*intent.Intent, error)

	// ListByStatus returns intents in the given status, newest first
	ListByStatus(ctx context.Context, status shared.IntentStatus, page, perPage int) ([]*intent.Intent, error)

	// Requeue moves a terminal-error intent back to PENDING and nudges the
	// settlement worker
	Requeue(ctx context.Context, id uuid.UUID) (*intent.Intent, error)
}

// DonationRecipient is one wallet receiving vouchers from a donation
type DonationRecipient struct {
	Owner string
	Count int
}

// TxRunner executes a function inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// ChainReader serves read-only contract state queries
type ChainReader interface {
	State(ctx context.Context, contractAddr string) (*chain.ContractState, error)
}
