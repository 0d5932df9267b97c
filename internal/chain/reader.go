package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mealvoucher-platform/internal/config"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

// VoucherDetail is the on-chain view of one voucher
type VoucherDetail struct {
	Value  float64              `json:"value"`
	Status shared.VoucherStatus `json:"status"`
}

// ContractState is the aggregate on-chain view of one contract, served by the
// API's read-only endpoint
type ContractState struct {
	UsdcBalance    float64 `json:"usdc_balance"`
	VoucherPrice   float64 `json:"voucher_price"`
	ManagementFees float64 `json:"management_fees"`
	TotalIssued    uint64  `json:"total_issued"`
	TotalUsed      uint64  `json:"total_used"`
}

// Reader serves view-function queries against deployed contracts. It holds no
// signing key and performs no mutating calls, so the API process can use it
// directly.
type Reader struct {
	client      *ethclient.Client
	contractABI abi.ABI
	logger      *slog.Logger
}

// NewReader connects a key-free read-only client to the RPC endpoint
func NewReader(logger *slog.Logger, cfg *config.ChainConfig) (*Reader, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	contractABI, err := ContractABI()
	if err != nil {
		return nil, err
	}

	return &Reader{
		client:      client,
		contractABI: contractABI,
		logger:      logger,
	}, nil
}

// Close releases the underlying RPC connection
func (r *Reader) Close() {
	r.client.Close()
}

// UsdcBalance returns the contract's stablecoin balance as a decimal value
func (r *Reader) UsdcBalance(ctx context.Context, contractAddr string) (float64, error) {
	return r.readScaled(ctx, contractAddr, "getUsdcBalance")
}

// VoucherPrice returns the current voucher price as a decimal value
func (r *Reader) VoucherPrice(ctx context.Context, contractAddr string) (float64, error) {
	return r.readScaled(ctx, contractAddr, "getVoucherPrice")
}

// CurrentManagementFees returns the management fee percentage
func (r *Reader) CurrentManagementFees(ctx context.Context, contractAddr string) (float64, error) {
	return r.readScaled(ctx, contractAddr, "getCurrentManagementFees")
}

// UnusedVoucherAmount returns the total decimal value of an owner's unused vouchers
func (r *Reader) UnusedVoucherAmount(ctx context.Context, contractAddr, owner string) (float64, error) {
	return r.readScaled(ctx, contractAddr, "getUnusedVoucherAmount", common.HexToAddress(owner))
}

// TotalVouchersIssued returns the number of vouchers the contract has minted
func (r *Reader) TotalVouchersIssued(ctx context.Context, contractAddr string) (uint64, error) {
	return r.readCount(ctx, contractAddr, "getTotalVoucherIssued")
}

// TotalVouchersUsed returns the number of vouchers the contract has redeemed
func (r *Reader) TotalVouchersUsed(ctx context.Context, contractAddr string) (uint64, error) {
	return r.readCount(ctx, contractAddr, "getTotalVoucherUsed")
}

// MealVoucherDetail returns the on-chain state of one voucher
func (r *Reader) MealVoucherDetail(ctx context.Context, contractAddr, owner string, voucherID uint64) (*VoucherDetail, error) {
	results, err := r.read(ctx, contractAddr, "getMealVoucherDetail",
		common.HexToAddress(owner), new(big.Int).SetUint64(voucherID))
	if err != nil {
		return nil, err
	}
	if len(results) != 2 {
		return nil, fmt.Errorf("unexpected result arity from getMealVoucherDetail: %d", len(results))
	}

	value, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected value type from getMealVoucherDetail: %T", results[0])
	}
	rawStatus, ok := results[1].(uint8)
	if !ok {
		return nil, fmt.Errorf("unexpected status type from getMealVoucherDetail: %T", results[1])
	}

	return &VoucherDetail{
		Value:  FromChain(value),
		Status: decodeVoucherStatus(rawStatus),
	}, nil
}

// State aggregates the contract-level views into one response
func (r *Reader) State(ctx context.Context, contractAddr string) (*ContractState, error) {
	balance, err := r.UsdcBalance(ctx, contractAddr)
	if err != nil {
		return nil, err
	}
	price, err := r.VoucherPrice(ctx, contractAddr)
	if err != nil {
		return nil, err
	}
	fees, err := r.CurrentManagementFees(ctx, contractAddr)
	if err != nil {
		return nil, err
	}
	issued, err := r.TotalVouchersIssued(ctx, contractAddr)
	if err != nil {
		return nil, err
	}
	used, err := r.TotalVouchersUsed(ctx, contractAddr)
	if err != nil {
		return nil, err
	}

	return &ContractState{
		UsdcBalance:    balance,
		VoucherPrice:   price,
		ManagementFees: fees,
		TotalIssued:    issued,
		TotalUsed:      used,
	}, nil
}

// readScaled executes a view call returning a micro-unit integer and converts
// it to a decimal value
func (r *Reader) readScaled(ctx context.Context, contractAddr, method string, args ...interface{}) (float64, error) {
	n, err := r.readBig(ctx, contractAddr, method, args...)
	if err != nil {
		return 0, err
	}
	return FromChain(n), nil
}

// readCount executes a view call returning a plain counter
func (r *Reader) readCount(ctx context.Context, contractAddr, method string, args ...interface{}) (uint64, error) {
	n, err := r.readBig(ctx, contractAddr, method, args...)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (r *Reader) readBig(ctx context.Context, contractAddr, method string, args ...interface{}) (*big.Int, error) {
	results, err := r.read(ctx, contractAddr, method, args...)
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("unexpected result arity from %s: %d", method, len(results))
	}
	n, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from %s: %T", method, results[0])
	}
	return n, nil
}

func (r *Reader) read(ctx context.Context, contractAddr, method string, args ...interface{}) ([]interface{}, error) {
	data, err := r.contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	to := common.HexToAddress(contractAddr)
	result, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		r.logger.Error("Contract view call failed",
			"method", method,
			"contract", contractAddr,
			"error", err,
		)
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	results, err := r.contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}

	return results, nil
}

// decodeVoucherStatus maps the contract's status enum to the domain status.
// Out-of-range values map to INVALID.
func decodeVoucherStatus(raw uint8) shared.VoucherStatus {
	switch raw {
	case 0:
		return shared.VoucherStatusValid
	case 1:
		return shared.VoucherStatusUsed
	default:
		return shared.VoucherStatusInvalid
	}
}
