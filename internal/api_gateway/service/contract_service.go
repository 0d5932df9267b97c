package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/transfer"
	"github.com/mealvoucher-platform/internal/platform/messaging/producers"
)

// ErrContractNotDeployed indicates an on-chain query against a contract
// whose deployment intent has not settled yet
var ErrContractNotDeployed = errors.New("contract is not deployed yet")

// ContractServiceImpl implements the ContractService interface
type ContractServiceImpl struct {
	db           TxRunner
	contractRepo contract.Repository
	intentRepo   intent.Repository
	transferRepo transfer.Repository
	reader       ChainReader
	producer     producers.MessagePublisher
	logger       *slog.Logger
}

// NewContractService creates a new contract service
func NewContractService(
	logger *slog.Logger,
	db TxRunner,
	contractRepo contract.Repository,
	intentRepo intent.Repository,
	transferRepo transfer.Repository,
	reader ChainReader,
	producer producers.MessagePublisher,
) ContractService {
	return &ContractServiceImpl{
		db:           db,
		contractRepo: contractRepo,
		intentRepo:   intentRepo,
		transferRepo: transferRepo,
		reader:       reader,
		producer:     producer,
		logger:       logger,
	}
}

// CreateContract stores the contract row and its deployment intent in one
// transaction, then nudges the settlement worker
func (s *ContractServiceImpl) CreateContract(ctx context.Context, countryCode string, voucherPrice, fees float64) (*contract.Contract, error) {
	c, err := contract.NewContract(countryCode, voucherPrice, fees)
	if err != nil {
		return nil, err
	}

	in := intent.NewIntent(shared.IntentKindContractDeployment, "", "", c.ID)
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.contractRepo.WithTx(tx).Create(ctx, c); err != nil {
			return err
		}
		return s.intentRepo.WithTx(tx).Create(ctx, in)
	})
	if err != nil {
		s.logger.Error("Failed to create contract",
			"country_code", countryCode,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Contract created, deployment queued",
		"contract_id", c.ID,
		"country_code", c.CountryCode,
		"intent_id", in.ID,
	)
	s.nudge(ctx, in)
	return c, nil
}

// GetContractByID retrieves a contract by its ID
func (s *ContractServiceImpl) GetContractByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	return s.contractRepo.GetByID(ctx, id)
}

// ListContracts returns all contracts
func (s *ContractServiceImpl) ListContracts(ctx context.Context) ([]*contract.Contract, error) {
	return s.contractRepo.List(ctx)
}

// UpdateFees persists the new fee percentage and queues the on-chain update.
// The settlement cycle pushes whatever the row holds when it runs, so two
// updates between cycles settle both intents with the latest value.
func (s *ContractServiceImpl) UpdateFees(ctx context.Context, id uuid.UUID, fees float64) (*contract.Contract, error) {
	if fees < 0 || fees > 100 {
		return nil, contract.ErrInvalidFees
	}
	return s.queueUpdate(ctx, id, shared.IntentKindUpdateFees, func(tx pgx.Tx) error {
		return s.contractRepo.WithTx(tx).UpdateFees(ctx, id, fees)
	})
}

// UpdatePrice persists the new voucher price and queues the on-chain update
func (s *ContractServiceImpl) UpdatePrice(ctx context.Context, id uuid.UUID, price float64) (*contract.Contract, error) {
	if price < contract.MinVoucherPrice {
		return nil, contract.ErrPriceTooSmall
	}
	return s.queueUpdate(ctx, id, shared.IntentKindUpdatePrice, func(tx pgx.Tx) error {
		return s.contractRepo.WithTx(tx).UpdatePrice(ctx, id, price)
	})
}

func (s *ContractServiceImpl) queueUpdate(ctx context.Context, id uuid.UUID, kind shared.IntentKind, apply func(tx pgx.Tx) error) (*contract.Contract, error) {
	if _, err := s.contractRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	in := intent.NewIntent(kind, "", "", id)
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := apply(tx); err != nil {
			return err
		}
		return s.intentRepo.WithTx(tx).Create(ctx, in)
	})
	if err != nil {
		s.logger.Error("Failed to queue contract update",
			"contract_id", id,
			"kind", kind,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Contract update queued",
		"contract_id", id,
		"kind", kind,
		"intent_id", in.ID,
	)
	s.nudge(ctx, in)
	return s.contractRepo.GetByID(ctx, id)
}

// OnChainState reads the contract's live state from the chain
func (s *ContractServiceImpl) OnChainState(ctx context.Context, id uuid.UUID) (*chain.ContractState, error) {
	c, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Deployed() {
		return nil, ErrContractNotDeployed
	}
	return s.reader.State(ctx, *c.Address)
}

// ListTransfers returns the observed fund movements for a contract
func (s *ContractServiceImpl) ListTransfers(ctx context.Context, id uuid.UUID, page, perPage int) ([]*transfer.Transfer, error) {
	if _, err := s.contractRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	offset := (page - 1) * perPage
	return s.transferRepo.ListByContract(ctx, id, perPage, offset)
}

// nudge wakes the settlement worker. Delivery is best effort: the worker
// polls on its own interval, so a failed nudge only delays settlement.
func (s *ContractServiceImpl) nudge(ctx context.Context, in *intent.Intent) {
	publishNudge(ctx, s.logger, s.producer, in)
}

func publishNudge(ctx context.Context, logger *slog.Logger, producer producers.MessagePublisher, in *intent.Intent) {
	if producer == nil {
		return
	}

	msg := &shared.IntentNudge{
		IntentID:  in.ID,
		Kind:      in.Kind,
		Timestamp: time.Now(),
	}
	if err := producer.Publish(ctx, in.ID.String(), msg); err != nil {
		logger.Warn("Failed to publish intent nudge",
			"intent_id", in.ID,
			"kind", in.Kind,
			"error", err,
		)
	}
}
