package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/transfer"
	"github.com/mealvoucher-platform/internal/domain/voucher"
	"github.com/mealvoucher-platform/internal/platform/messaging/producers"
)

const resubscribeDelay = 5 * time.Second

// LogStream subscribes to contract logs. Satisfied by ethclient.Client.
type LogStream interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// Listener mirrors on-chain voucher and transfer events back into the
// database, one subscription per deployed contract. Every write it performs
// is idempotent, so observing an event the settlement cycle already applied
// is harmless. Logs it cannot decode go to the dead letter queue.
type Listener struct {
	logger    *slog.Logger
	client    LogStream
	vouchers  voucher.Repository
	transfers transfer.Repository
	dlq       producers.DeadLetterPublisher

	generatedID common.Hash
	usedID      common.Hash
	transferID  common.Hash

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

func NewListener(
	logger *slog.Logger,
	client LogStream,
	vouchers voucher.Repository,
	transfers transfer.Repository,
	dlq producers.DeadLetterPublisher,
) (*Listener, error) {
	contractABI, err := chain.ContractABI()
	if err != nil {
		return nil, err
	}

	return &Listener{
		logger:      logger,
		client:      client,
		vouchers:    vouchers,
		transfers:   transfers,
		dlq:         dlq,
		generatedID: contractABI.Events[chain.EventVoucherGenerated].ID,
		usedID:      contractABI.Events[chain.EventVoucherUsed].ID,
		transferID:  contractABI.Events[chain.EventTransfer].ID,
		cancels:     make(map[uuid.UUID]context.CancelFunc),
	}, nil
}

// Register starts watching a deployed contract's events. Registering the
// same contract twice is a no-op.
func (l *Listener) Register(ctx context.Context, contractID uuid.UUID, address string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cancels[contractID]; ok {
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	l.cancels[contractID] = cancel

	l.wg.Add(1)
	go l.watch(watchCtx, contractID, common.HexToAddress(address))

	l.logger.Info("Watching contract events",
		"contract_id", contractID,
		"address", address,
	)
}

// CloseAll stops every subscription and waits for the watchers to exit
func (l *Listener) CloseAll() {
	l.mu.Lock()
	for id, cancel := range l.cancels {
		cancel()
		delete(l.cancels, id)
	}
	l.mu.Unlock()

	l.wg.Wait()
	l.logger.Info("Stopped all contract event subscriptions")
}

// watch keeps one contract's subscription alive, reconnecting after
// transport errors until the context is canceled
func (l *Listener) watch(ctx context.Context, contractID uuid.UUID, address common.Address) {
	defer l.wg.Done()

	for {
		err := l.stream(ctx, contractID, address)
		if err == nil || ctx.Err() != nil {
			return
		}

		l.logger.Error("Contract event subscription dropped, reconnecting",
			"contract_id", contractID,
			"address", address.Hex(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

func (l *Listener) stream(ctx context.Context, contractID uuid.UUID, address common.Address) error {
	if ctx.Err() != nil {
		return nil
	}

	logs := make(chan types.Log, 64)
	query := ethereum.FilterQuery{
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{{l.generatedID, l.usedID, l.transferID}},
	}

	sub, err := l.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to contract logs: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case entry := <-logs:
			l.handle(ctx, contractID, entry)
		}
	}
}

func (l *Listener) handle(ctx context.Context, contractID uuid.UUID, entry types.Log) {
	if len(entry.Topics) == 0 {
		l.deadLetter(ctx, entry, "log entry without topics")
		return
	}

	switch entry.Topics[0] {
	case l.usedID:
		l.handleVoucherUsed(ctx, entry)
	case l.generatedID:
		l.handleVoucherGenerated(ctx, entry)
	case l.transferID:
		l.handleTransfer(ctx, contractID, entry)
	default:
		l.deadLetter(ctx, entry, fmt.Sprintf("unexpected event topic %s", entry.Topics[0]))
	}
}

// handleVoucherUsed mirrors on-chain status changes onto voucher rows. A row
// already carrying the status, or an unknown (owner, voucher id) pair, is
// skipped without error.
func (l *Listener) handleVoucherUsed(ctx context.Context, entry types.Log) {
	event, err := chain.DecodeVoucherUsed(entry)
	if err != nil {
		l.deadLetter(ctx, entry, err.Error())
		return
	}

	for i := range event.Owners {
		rows, err := l.vouchers.UpdateStatusByOnChainID(ctx, event.Owners[i], event.VoucherIDs[i], event.Statuses[i])
		if err != nil {
			l.logger.Error("Failed to mirror voucher status from chain event",
				"owner", event.Owners[i],
				"voucher_id", event.VoucherIDs[i],
				"status", event.Statuses[i],
				"error", err,
			)
			continue
		}
		if rows == 0 {
			l.logger.Debug("Voucher status already current",
				"owner", event.Owners[i],
				"voucher_id", event.VoucherIDs[i],
				"status", event.Statuses[i],
			)
		}
	}
}

// handleVoucherGenerated confirms minted vouchers as VALID. Rows are
// created VALID when the donation is accepted, so this usually touches
// nothing.
func (l *Listener) handleVoucherGenerated(ctx context.Context, entry types.Log) {
	event, err := chain.DecodeVoucherGenerated(entry)
	if err != nil {
		l.deadLetter(ctx, entry, err.Error())
		return
	}

	for i := range event.Owners {
		if _, err := l.vouchers.UpdateStatusByOnChainID(ctx, event.Owners[i], event.VoucherIDs[i], shared.VoucherStatusValid); err != nil {
			l.logger.Error("Failed to confirm generated voucher",
				"owner", event.Owners[i],
				"voucher_id", event.VoucherIDs[i],
				"error", err,
			)
		}
	}
}

// handleTransfer records observed fund movements. Transfer rows are
// insert-only history, one per movement within the event.
func (l *Listener) handleTransfer(ctx context.Context, contractID uuid.UUID, entry types.Log) {
	records, err := chain.DecodeTransfer(entry)
	if err != nil {
		l.deadLetter(ctx, entry, err.Error())
		return
	}

	txHash := entry.TxHash.Hex()
	for _, record := range records {
		t := transfer.NewTransfer(contractID, record.From, record.To, record.Value, record.Type, txHash)
		if err := l.transfers.Create(ctx, t); err != nil {
			l.logger.Error("Failed to record observed transfer",
				"contract_id", contractID,
				"tx_hash", txHash,
				"error", err,
			)
		}
	}
}

func (l *Listener) deadLetter(ctx context.Context, entry types.Log, reason string) {
	l.logger.Error("Dropping undecodable chain event",
		"address", entry.Address.Hex(),
		"tx_hash", entry.TxHash.Hex(),
		"reason", reason,
	)

	if l.dlq == nil {
		return
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error("Failed to marshal chain event for DLQ", "error", err)
		return
	}

	key := fmt.Sprintf("%s-%s-%d", entry.Address.Hex(), entry.TxHash.Hex(), entry.Index)
	if err := l.dlq.PublishToDLQ(ctx, key, raw, reason); err != nil {
		l.logger.Error("Failed to publish chain event to DLQ", "key", key, "error", err)
	}
}
