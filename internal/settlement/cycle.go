package settlement

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/panjf2000/ants/v2"

	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/journal"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/voucher"
)

// DeployedContract reports one contract whose deployment settled during a
// cycle, so the event listener can start watching its address.
type DeployedContract struct {
	ContractID uuid.UUID
	Address    string
}

// Result is the outcome of one settlement cycle
type Result struct {
	Record   *journal.CycleRecord
	Deployed []DeployedContract
}

// Cycle drains pending intents in stage order: deployments first, then
// contract parameter updates, then voucher generation and redemption. Each
// stage fetches a fresh nonce base and fans its calls out over the worker
// pool; a stage failing never stops the stages after it.
type Cycle struct {
	logger            *slog.Logger
	db                TxRunner
	intents           intent.Repository
	contracts         contract.Repository
	vouchers          voucher.Repository
	journal           journal.Repository
	gateway           ChainGateway
	pool              *ants.Pool
	voucherBatchLimit int
}

func NewCycle(
	logger *slog.Logger,
	db TxRunner,
	intents intent.Repository,
	contracts contract.Repository,
	vouchers voucher.Repository,
	journalRepo journal.Repository,
	gateway ChainGateway,
	pool *ants.Pool,
	voucherBatchLimit int,
) *Cycle {
	return &Cycle{
		logger:            logger,
		db:                db,
		intents:           intents,
		contracts:         contracts,
		vouchers:          vouchers,
		journal:           journalRepo,
		gateway:           gateway,
		pool:              pool,
		voucherBatchLimit: voucherBatchLimit,
	}
}

// Run executes one full settlement cycle and stores its journal record.
// Stage errors are contained and summarized in the record; Run itself only
// fails on a canceled context.
func (c *Cycle) Run(ctx context.Context, triggeredBy string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := journal.NewCycleRecord(triggeredBy)
	result := &Result{Record: record}

	c.logger.Info("Starting settlement cycle",
		"cycle_id", record.CycleID,
		"triggered_by", triggeredBy,
	)

	c.runDeployments(ctx, record, result)
	c.runContractUpdates(ctx, record, shared.IntentKindUpdateFees)
	c.runContractUpdates(ctx, record, shared.IntentKindUpdatePrice)
	c.runVoucherBatches(ctx, record, shared.IntentKindGenerateVoucher)
	c.runVoucherBatches(ctx, record, shared.IntentKindRedeemVoucher)

	record.Finish()
	if err := c.journal.Create(ctx, record); err != nil {
		c.logger.Error("Failed to store settlement cycle record",
			"cycle_id", record.CycleID,
			"error", err,
		)
	}

	c.logger.Info("Settlement cycle finished",
		"cycle_id", record.CycleID,
		"stages", len(record.Stages),
		"deployed", len(result.Deployed),
	)
	return result, nil
}

// runDeployments settles pending CONTRACT_DEPLOYMENT intents. A successful
// deployment writes the contract address and the intent outcome in one
// transaction so the address can never appear without its SUCCESS row.
func (c *Cycle) runDeployments(ctx context.Context, record *journal.CycleRecord, result *Result) {
	kind := shared.IntentKindContractDeployment

	pending, err := c.intents.GetPendingByKind(ctx, kind, 0)
	if err != nil {
		c.failStage(record, kind, err)
		return
	}
	if len(pending) == 0 {
		record.AddStage(journal.StageResult{Kind: kind})
		return
	}

	targets, err := c.contracts.GetByIDs(ctx, referenceIDs(pending))
	if err != nil {
		c.failStage(record, kind, err)
		return
	}

	nonce, err := c.gateway.PendingNonce(ctx)
	if err != nil {
		c.failStage(record, kind, err)
		return
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	success := 0

	for _, in := range pending {
		target, ok := targets[in.ReferenceID]
		if !ok {
			c.logger.Error("Deployment intent references unknown contract",
				"intent_id", in.ID,
				"contract_id", in.ReferenceID,
			)
			continue
		}

		in, target, callNonce := in, target, nonce
		nonce++
		wg.Add(1)
		if err := c.pool.Submit(func() {
			defer wg.Done()
			if deployed := c.deployOne(ctx, in, target, callNonce); deployed != nil {
				mu.Lock()
				result.Deployed = append(result.Deployed, *deployed)
				success++
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			c.logger.Error("Failed to submit deployment to worker pool", "intent_id", in.ID, "error", err)
		}
	}
	wg.Wait()

	record.AddStage(journal.StageResult{
		Kind:         kind,
		IntentCount:  len(pending),
		SuccessCount: success,
		FailureCount: len(pending) - success,
	})
}

func (c *Cycle) deployOne(ctx context.Context, in *intent.Intent, target *contract.Contract, nonce uint64) *DeployedContract {
	address, hash, cerr := c.gateway.Deploy(ctx, nonce, target.VoucherPrice, target.Fees)
	if cerr != nil {
		if cerr.Canceled() {
			c.logger.Warn("Contract deployment interrupted, intent stays pending",
				"intent_id", in.ID,
				"contract_id", target.ID,
			)
			return nil
		}
		c.logger.Error("Contract deployment failed",
			"intent_id", in.ID,
			"contract_id", target.ID,
			"country", target.CountryCode,
			"error", cerr,
		)
		c.writeOutcome(ctx, in.ID, cerr.Code.Status(), nil)
		return nil
	}

	err := c.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := c.contracts.WithTx(tx).SetAddress(ctx, target.ID, address); err != nil {
			return err
		}
		return c.intents.WithTx(tx).UpdateStatus(ctx, in.ID, shared.IntentStatusSuccess, &hash)
	})
	if err != nil {
		// The intent stays PENDING and the next cycle deploys again,
		// orphaning this instance on chain.
		c.logger.Error("Failed to record contract deployment",
			"intent_id", in.ID,
			"contract_id", target.ID,
			"address", address,
			"hash", hash,
			"error", err,
		)
		return nil
	}

	c.logger.Info("Contract deployed",
		"contract_id", target.ID,
		"country", target.CountryCode,
		"address", address,
		"hash", hash,
	)
	return &DeployedContract{ContractID: target.ID, Address: address}
}

// runContractUpdates settles pending UPDATE_FEES or UPDATE_PRICE intents.
// The value pushed on chain is the contract row's current one, so a row
// updated twice between cycles settles both intents with the latest value.
// Intents whose contract has no address yet are left PENDING.
func (c *Cycle) runContractUpdates(ctx context.Context, record *journal.CycleRecord, kind shared.IntentKind) {
	pending, err := c.intents.GetPendingByKind(ctx, kind, 0)
	if err != nil {
		c.failStage(record, kind, err)
		return
	}
	if len(pending) == 0 {
		record.AddStage(journal.StageResult{Kind: kind})
		return
	}

	targets, err := c.contracts.GetByIDs(ctx, referenceIDs(pending))
	if err != nil {
		c.failStage(record, kind, err)
		return
	}

	ready := make([]*intent.Intent, 0, len(pending))
	for _, in := range pending {
		target, ok := targets[in.ReferenceID]
		if !ok || !target.Deployed() {
			continue
		}
		ready = append(ready, in)
	}
	if len(ready) == 0 {
		record.AddStage(journal.StageResult{Kind: kind, IntentCount: len(pending)})
		return
	}

	nonce, err := c.gateway.PendingNonce(ctx)
	if err != nil {
		c.failStage(record, kind, err)
		return
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	success := 0

	for i, in := range ready {
		in, target, callNonce := in, targets[in.ReferenceID], nonce+uint64(i)
		wg.Add(1)
		if err := c.pool.Submit(func() {
			defer wg.Done()
			if c.updateOne(ctx, kind, in, target, callNonce) {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			c.logger.Error("Failed to submit contract update to worker pool", "intent_id", in.ID, "error", err)
		}
	}
	wg.Wait()

	record.AddStage(journal.StageResult{
		Kind:         kind,
		IntentCount:  len(pending),
		SuccessCount: success,
		FailureCount: len(ready) - success,
	})
}

func (c *Cycle) updateOne(ctx context.Context, kind shared.IntentKind, in *intent.Intent, target *contract.Contract, nonce uint64) bool {
	var hash string
	var cerr *chain.Error

	switch kind {
	case shared.IntentKindUpdateFees:
		hash, cerr = c.gateway.UpdateManagementFees(ctx, nonce, *target.Address, target.Fees)
	case shared.IntentKindUpdatePrice:
		hash, cerr = c.gateway.UpdateVoucherPrice(ctx, nonce, *target.Address, target.VoucherPrice)
	default:
		c.logger.Error("Unsupported contract update kind", "kind", kind)
		return false
	}

	if cerr != nil {
		if cerr.Canceled() {
			c.logger.Warn("Contract update interrupted, intent stays pending",
				"kind", kind,
				"intent_id", in.ID,
			)
			return false
		}
		c.logger.Error("Contract update failed",
			"kind", kind,
			"intent_id", in.ID,
			"contract_id", target.ID,
			"error", cerr,
		)
		c.writeOutcome(ctx, in.ID, cerr.Code.Status(), nil)
		return false
	}

	c.writeOutcome(ctx, in.ID, shared.IntentStatusSuccess, &hash)
	return true
}

// runVoucherBatches settles pending GENERATE_VOUCHER or REDEEM_VOUCHER
// intents, one contract call per target contract. Every intent in a batch
// shares the batch outcome and hash.
func (c *Cycle) runVoucherBatches(ctx context.Context, record *journal.CycleRecord, kind shared.IntentKind) {
	work, err := c.intents.GetPendingVoucherWork(ctx, kind, c.voucherBatchLimit)
	if err != nil {
		c.failStage(record, kind, err)
		return
	}
	if len(work) == 0 {
		record.AddStage(journal.StageResult{Kind: kind})
		return
	}

	targets, err := c.contracts.GetByIDs(ctx, contractIDs(work))
	if err != nil {
		c.failStage(record, kind, err)
		return
	}

	var generate []GenerateBatch
	var redeem []RedeemBatch
	var batchCount, skipped int
	if kind == shared.IntentKindGenerateVoucher {
		generate, skipped = GroupGenerate(work, targets)
		batchCount = len(generate)
	} else {
		redeem, skipped = GroupRedeem(work, targets)
		batchCount = len(redeem)
	}
	if skipped > 0 {
		c.logger.Warn("Voucher intents waiting on contract deployment",
			"kind", kind,
			"count", skipped,
		)
	}
	if batchCount == 0 {
		record.AddStage(journal.StageResult{Kind: kind, IntentCount: len(work)})
		return
	}

	nonce, err := c.gateway.PendingNonce(ctx)
	if err != nil {
		c.failStage(record, kind, err)
		return
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	success, failure := 0, 0

	runBatch := func(fn func() (settled int, ok bool)) {
		wg.Add(1)
		if err := c.pool.Submit(func() {
			defer wg.Done()
			settled, ok := fn()
			mu.Lock()
			if ok {
				success += settled
			} else {
				failure += settled
			}
			mu.Unlock()
		}); err != nil {
			wg.Done()
			c.logger.Error("Failed to submit voucher batch to worker pool", "kind", kind, "error", err)
		}
	}

	for i := range generate {
		batch, callNonce := generate[i], nonce+uint64(i)
		runBatch(func() (int, bool) {
			return len(batch.IntentIDs), c.generateBatch(ctx, batch, callNonce)
		})
	}
	for i := range redeem {
		batch, callNonce := redeem[i], nonce+uint64(i)
		runBatch(func() (int, bool) {
			return len(batch.IntentIDs), c.redeemBatch(ctx, batch, callNonce)
		})
	}
	wg.Wait()

	record.AddStage(journal.StageResult{
		Kind:         kind,
		IntentCount:  len(work),
		SuccessCount: success,
		FailureCount: failure,
	})
}

func (c *Cycle) generateBatch(ctx context.Context, batch GenerateBatch, nonce uint64) bool {
	hash, cerr := c.gateway.GenerateVouchers(ctx, nonce, batch.Address, batch.Call)
	if cerr != nil {
		if cerr.Canceled() {
			c.logger.Warn("Voucher generation batch interrupted, intents stay pending",
				"contract_id", batch.ContractID,
				"intents", len(batch.IntentIDs),
			)
			return false
		}
		c.logger.Error("Voucher generation batch failed",
			"contract_id", batch.ContractID,
			"intents", len(batch.IntentIDs),
			"error", cerr,
		)
		c.writeBulkOutcome(ctx, batch.IntentIDs, cerr.Code.Status(), nil)
		return false
	}

	c.writeBulkOutcome(ctx, batch.IntentIDs, shared.IntentStatusSuccess, &hash)
	c.logger.Info("Voucher generation batch settled",
		"contract_id", batch.ContractID,
		"vouchers", batch.Call.TotalCount,
		"hash", hash,
	)
	return true
}

// redeemBatch settles one redeemVoucher call. On success the intents and the
// voucher rows move together in one transaction; the voucher update is
// idempotent against the chain event listener observing the same redemption.
func (c *Cycle) redeemBatch(ctx context.Context, batch RedeemBatch, nonce uint64) bool {
	hash, cerr := c.gateway.RedeemVouchers(ctx, nonce, batch.Address, batch.Call)
	if cerr != nil {
		if cerr.Canceled() {
			c.logger.Warn("Voucher redemption batch interrupted, intents stay pending",
				"contract_id", batch.ContractID,
				"intents", len(batch.IntentIDs),
			)
			return false
		}
		c.logger.Error("Voucher redemption batch failed",
			"contract_id", batch.ContractID,
			"intents", len(batch.IntentIDs),
			"error", cerr,
		)
		c.writeBulkOutcome(ctx, batch.IntentIDs, cerr.Code.Status(), nil)
		return false
	}

	err := c.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := c.intents.WithTx(tx).UpdateStatusBulk(ctx, batch.IntentIDs, shared.IntentStatusSuccess, &hash); err != nil {
			return err
		}
		vouchers := c.vouchers.WithTx(tx)
		for _, entry := range batch.Call.Entries {
			if _, err := vouchers.UpdateStatusByOnChainID(ctx, entry.Owner, entry.VoucherID, shared.VoucherStatusUsed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Error("Failed to record voucher redemption batch",
			"contract_id", batch.ContractID,
			"hash", hash,
			"error", err,
		)
		return false
	}

	c.logger.Info("Voucher redemption batch settled",
		"contract_id", batch.ContractID,
		"vouchers", batch.Call.Count,
		"hash", hash,
	)
	return true
}

func (c *Cycle) writeOutcome(ctx context.Context, id uuid.UUID, status shared.IntentStatus, hash *string) {
	if err := c.intents.UpdateStatus(ctx, id, status, hash); err != nil {
		c.logger.Error("Failed to write intent outcome",
			"intent_id", id,
			"status", status,
			"error", err,
		)
	}
}

func (c *Cycle) writeBulkOutcome(ctx context.Context, ids []uuid.UUID, status shared.IntentStatus, hash *string) {
	if err := c.intents.UpdateStatusBulk(ctx, ids, status, hash); err != nil {
		c.logger.Error("Failed to write batch intent outcome",
			"intents", len(ids),
			"status", status,
			"error", err,
		)
	}
}

func (c *Cycle) failStage(record *journal.CycleRecord, kind shared.IntentKind, err error) {
	c.logger.Error("Settlement stage failed", "kind", kind, "error", err)
	record.AddStage(journal.StageResult{Kind: kind, Error: err.Error()})
}

func referenceIDs(intents []*intent.Intent) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(intents))
	seen := make(map[uuid.UUID]struct{}, len(intents))
	for _, in := range intents {
		if _, ok := seen[in.ReferenceID]; ok {
			continue
		}
		seen[in.ReferenceID] = struct{}{}
		ids = append(ids, in.ReferenceID)
	}
	return ids
}

func contractIDs(work []*intent.VoucherWork) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(work))
	seen := make(map[uuid.UUID]struct{}, len(work))
	for _, w := range work {
		if _, ok := seen[w.ContractID]; ok {
			continue
		}
		seen[w.ContractID] = struct{}{}
		ids = append(ids, w.ContractID)
	}
	return ids
}
