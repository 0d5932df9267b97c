// Package chain wraps the blockchain client behind a small synchronous
// gateway. Mutating calls take an explicit caller-supplied nonce, block until
// the transaction is mined and classify every failure into a closed error
// code set; nonce bookkeeping belongs entirely to the caller.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mealvoucher-platform/internal/config"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

// GenerateRecipient is one donation recipient and the on-chain voucher ids
// minted for them
type GenerateRecipient struct {
	Owner      string
	VoucherIDs []uint64
}

// GenerateCall carries the parameters of one generateVoucher contract call.
// TotalCount must equal the number of ids across all recipients; the contract
// rejects the call otherwise.
type GenerateCall struct {
	Recipients []GenerateRecipient
	TotalCount int
}

// RedeemEntry is one voucher redemption within a redeemVoucher call
type RedeemEntry struct {
	Owner     string
	VoucherID uint64
	Merchant  string
}

// RedeemCall carries the parameters of one redeemVoucher contract call
type RedeemCall struct {
	Entries []RedeemEntry
	Count   int
}

// Gateway executes state-changing calls against voucher contracts with a
// single signing account
type Gateway struct {
	client              *ethclient.Client
	contractABI         abi.ABI
	privateKey          *ecdsa.PrivateKey
	from                common.Address
	chainID             *big.Int
	stableCoin          common.Address
	gasLimit            uint64
	gasSafetyPercent    int64
	confirmationTimeout time.Duration
	logger              *slog.Logger
}

// NewGateway connects to the RPC endpoint, derives the signing address and
// verifies the node serves the configured chain id
func NewGateway(ctx context.Context, logger *slog.Logger, cfg *config.ChainConfig) (*Gateway, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if chainID.Int64() != cfg.ChainID {
		return nil, fmt.Errorf("chain id mismatch: expected %d, node reports %s", cfg.ChainID, chainID)
	}

	privateKey, err := crypto.HexToECDSA(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	from := crypto.PubkeyToAddress(privateKey.PublicKey)

	contractABI, err := ContractABI()
	if err != nil {
		return nil, err
	}

	logger.Info("Connected to chain",
		"chain_id", chainID.String(),
		"signer", from.Hex(),
	)

	return &Gateway{
		client:              client,
		contractABI:         contractABI,
		privateKey:          privateKey,
		from:                from,
		chainID:             chainID,
		stableCoin:          common.HexToAddress(cfg.StableCoinAddress),
		gasLimit:            cfg.GasLimit,
		gasSafetyPercent:    cfg.GasSafetyPercent,
		confirmationTimeout: cfg.ConfirmationTimeout,
		logger:              logger,
	}, nil
}

// Close releases the underlying RPC connection
func (g *Gateway) Close() {
	g.client.Close()
}

// Signer returns the address transactions are sent from
func (g *Gateway) Signer() string {
	return g.from.Hex()
}

// PendingNonce returns the signer's next usable nonce. The settlement cycle
// reads this fresh at the start of every stage.
func (g *Gateway) PendingNonce(ctx context.Context) (uint64, error) {
	nonce, err := g.client.PendingNonceAt(ctx, g.from)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending nonce: %w", err)
	}
	return nonce, nil
}

// Deploy creates a new voucher contract instance. On success it returns the
// deployed address and the transaction hash.
func (g *Gateway) Deploy(ctx context.Context, nonce uint64, voucherPrice, fees float64) (string, string, *Error) {
	args, err := g.contractABI.Pack("", g.stableCoin, ToChain(voucherPrice), ToChain(fees))
	if err != nil {
		return "", "", newError(shared.ChainErrDeployFailed, fmt.Errorf("failed to pack constructor args: %w", err))
	}
	data := append(common.FromHex(mealVoucherBin), args...)

	receipt, err := g.submit(ctx, nonce, nil, data)
	if err != nil {
		code := classify(err)
		if code == shared.ChainErrUnknown {
			code = shared.ChainErrDeployFailed
		}
		return "", "", newError(code, err)
	}

	address := receipt.ContractAddress.Hex()
	g.logger.Info("Contract deployed",
		"address", address,
		"hash", receipt.TxHash.Hex(),
		"nonce", nonce,
	)

	return address, receipt.TxHash.Hex(), nil
}

// GenerateVouchers mints a batch of vouchers on one contract in a single call
func (g *Gateway) GenerateVouchers(ctx context.Context, nonce uint64, contractAddr string, call GenerateCall) (string, *Error) {
	owners := make([]common.Address, len(call.Recipients))
	ids := make([][]*big.Int, len(call.Recipients))
	for i, rec := range call.Recipients {
		owners[i] = common.HexToAddress(rec.Owner)
		ids[i] = make([]*big.Int, len(rec.VoucherIDs))
		for j, id := range rec.VoucherIDs {
			ids[i][j] = new(big.Int).SetUint64(id)
		}
	}

	return g.call(ctx, nonce, contractAddr, "generateVoucher", owners, ids, big.NewInt(int64(call.TotalCount)))
}

// RedeemVouchers marks a batch of vouchers used on one contract in a single call
func (g *Gateway) RedeemVouchers(ctx context.Context, nonce uint64, contractAddr string, call RedeemCall) (string, *Error) {
	owners := make([]common.Address, len(call.Entries))
	ids := make([]*big.Int, len(call.Entries))
	merchants := make([]common.Address, len(call.Entries))
	for i, e := range call.Entries {
		owners[i] = common.HexToAddress(e.Owner)
		ids[i] = new(big.Int).SetUint64(e.VoucherID)
		merchants[i] = common.HexToAddress(e.Merchant)
	}

	return g.call(ctx, nonce, contractAddr, "redeemVoucher", owners, ids, merchants, big.NewInt(int64(call.Count)))
}

// UpdateManagementFees sets the contract's management fee percentage
func (g *Gateway) UpdateManagementFees(ctx context.Context, nonce uint64, contractAddr string, fees float64) (string, *Error) {
	return g.call(ctx, nonce, contractAddr, "updateManagementFees", ToChain(fees))
}

// UpdateVoucherPrice sets the contract's voucher price
func (g *Gateway) UpdateVoucherPrice(ctx context.Context, nonce uint64, contractAddr string, price float64) (string, *Error) {
	return g.call(ctx, nonce, contractAddr, "updateVoucherPrice", ToChain(price))
}

// call packs a contract method invocation, submits it with the supplied nonce
// and waits for confirmation
func (g *Gateway) call(ctx context.Context, nonce uint64, contractAddr, method string, args ...interface{}) (string, *Error) {
	data, err := g.contractABI.Pack(method, args...)
	if err != nil {
		return "", newError(shared.ChainErrUnknown, fmt.Errorf("failed to pack %s call: %w", method, err))
	}

	to := common.HexToAddress(contractAddr)
	receipt, err := g.submit(ctx, nonce, &to, data)
	if err != nil {
		code := classify(err)
		g.logger.Warn("Contract call failed",
			"method", method,
			"contract", contractAddr,
			"nonce", nonce,
			"code", string(code),
			"error", err,
		)
		return "", newError(code, err)
	}

	g.logger.Info("Contract call confirmed",
		"method", method,
		"contract", contractAddr,
		"hash", receipt.TxHash.Hex(),
		"nonce", nonce,
		"gas_used", receipt.GasUsed,
	)

	return receipt.TxHash.Hex(), nil
}

// submit signs and sends one transaction with the exact nonce supplied, then
// blocks until it is mined or the confirmation timeout elapses
func (g *Gateway) submit(ctx context.Context, nonce uint64, to *common.Address, data []byte) (*types.Receipt, error) {
	gasPrice, err := g.suggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit := g.gasLimit
	if gasLimit == 0 {
		estimated, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
			From: g.from,
			To:   to,
			Data: data,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
		gasLimit = estimated * 2
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(g.chainID), g.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := g.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.confirmationTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, g.client, signedTx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for confirmation of %s: %w", signedTx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, g.revertReason(ctx, signedTx, receipt)
	}

	return receipt, nil
}

// suggestGasPrice returns the node's suggestion marked up by the configured
// safety percentage
func (g *Gateway) suggestGasPrice(ctx context.Context) (*big.Int, error) {
	suggested, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	adjusted := new(big.Int).Mul(suggested, big.NewInt(100+g.gasSafetyPercent))
	return adjusted.Div(adjusted, big.NewInt(100)), nil
}

// revertReason replays a failed transaction as a call to recover the revert
// reason string
func (g *Gateway) revertReason(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) error {
	msg := ethereum.CallMsg{
		From:     g.from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}

	result, err := g.client.CallContract(ctx, msg, receipt.BlockNumber)
	if err != nil {
		return fmt.Errorf("transaction %s reverted: %w", receipt.TxHash.Hex(), err)
	}

	if reason, unpackErr := abi.UnpackRevert(result); unpackErr == nil {
		return fmt.Errorf("transaction %s reverted: %s", receipt.TxHash.Hex(), reason)
	}

	return errors.New("transaction reverted without reason: " + receipt.TxHash.Hex())
}

// DialWS opens the websocket client used for event subscriptions
func DialWS(cfg *config.ChainConfig) (*ethclient.Client, error) {
	client, err := ethclient.Dial(cfg.WSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain websocket: %w", err)
	}
	return client, nil
}
