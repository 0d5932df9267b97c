package settlement

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/mealvoucher-platform/internal/chain"
)

// ChainGateway executes state-changing calls against voucher contracts.
// Nonces are caller-supplied; the cycle fetches a fresh base per stage and
// hands out consecutive values so concurrent calls never collide.
type ChainGateway interface {
	PendingNonce(ctx context.Context) (uint64, error)
	Deploy(ctx context.Context, nonce uint64, voucherPrice, fees float64) (string, string, *chain.Error)
	GenerateVouchers(ctx context.Context, nonce uint64, contractAddr string, call chain.GenerateCall) (string, *chain.Error)
	RedeemVouchers(ctx context.Context, nonce uint64, contractAddr string, call chain.RedeemCall) (string, *chain.Error)
	UpdateManagementFees(ctx context.Context, nonce uint64, contractAddr string, fees float64) (string, *chain.Error)
	UpdateVoucherPrice(ctx context.Context, nonce uint64, contractAddr string, price float64) (string, *chain.Error)
}

// TxRunner executes a function inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
