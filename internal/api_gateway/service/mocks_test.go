package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/transfer"
	"github.com/mealvoucher-platform/internal/domain/voucher"
	"github.com/mealvoucher-platform/internal/platform/messaging/producers"
)

// Mock implementations of the service dependencies

type MockIntentRepository struct {
	mock.Mock
}

func (m *MockIntentRepository) WithTx(tx pgx.Tx) intent.Repository {
	m.Called(tx)
	return m
}

func (m *MockIntentRepository) Create(ctx context.Context, in *intent.Intent) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockIntentRepository) GetByID(ctx context.Context, id uuid.UUID) (*intent.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*intent.Intent), args.Error(1)
}

func (m *MockIntentRepository) GetPendingByKind(ctx context.Context, kind shared.IntentKind, limit int) ([]*intent.Intent, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*intent.Intent), args.Error(1)
}

func (m *MockIntentRepository) GetPendingVoucherWork(ctx context.Context, kind shared.IntentKind, limit int) ([]*intent.VoucherWork, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*intent.VoucherWork), args.Error(1)
}

func (m *MockIntentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.IntentStatus, hash *string) error {
	args := m.Called(ctx, id, status, hash)
	return args.Error(0)
}

func (m *MockIntentRepository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status shared.IntentStatus, hash *string) error {
	args := m.Called(ctx, ids, status, hash)
	return args.Error(0)
}

func (m *MockIntentRepository) HasActiveRedeem(ctx context.Context, voucherID uuid.UUID) (bool, error) {
	args := m.Called(ctx, voucherID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIntentRepository) ListByStatus(ctx context.Context, status shared.IntentStatus, limit, offset int) ([]*intent.Intent, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*intent.Intent), args.Error(1)
}

func (m *MockIntentRepository) Requeue(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) WithTx(tx pgx.Tx) contract.Repository {
	m.Called(tx)
	return m
}

func (m *MockContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*contract.Contract, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) List(ctx context.Context) ([]*contract.Contract, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) ListDeployed(ctx context.Context) ([]*contract.Contract, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) SetAddress(ctx context.Context, id uuid.UUID, address string) error {
	args := m.Called(ctx, id, address)
	return args.Error(0)
}

func (m *MockContractRepository) UpdateFees(ctx context.Context, id uuid.UUID, fees float64) error {
	args := m.Called(ctx, id, fees)
	return args.Error(0)
}

func (m *MockContractRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price float64) error {
	args := m.Called(ctx, id, price)
	return args.Error(0)
}

type MockVoucherRepository struct {
	mock.Mock
}

func (m *MockVoucherRepository) WithTx(tx pgx.Tx) voucher.Repository {
	m.Called(tx)
	return m
}

func (m *MockVoucherRepository) Create(ctx context.Context, v *voucher.Voucher) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVoucherRepository) GetByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.VoucherStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockVoucherRepository) UpdateStatusByOnChainID(ctx context.Context, owner string, onChainID uint64, status shared.VoucherStatus) (int64, error) {
	args := m.Called(ctx, owner, onChainID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVoucherRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*voucher.Voucher, error) {
	args := m.Called(ctx, owner, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*voucher.Voucher), args.Error(1)
}

type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransferRepository) ListByContract(ctx context.Context, contractID uuid.UUID, limit, offset int) ([]*transfer.Transfer, error) {
	args := m.Called(ctx, contractID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Transfer), args.Error(1)
}

type MockMessagingProducer struct {
	mock.Mock
}

func (m *MockMessagingProducer) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagingProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockContractService struct {
	mock.Mock
}

func (m *MockContractService) CreateContract(ctx context.Context, countryCode string, voucherPrice, fees float64) (*contract.Contract, error) {
	args := m.Called(ctx, countryCode, voucherPrice, fees)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractService) GetContractByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractService) ListContracts(ctx context.Context) ([]*contract.Contract, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*contract.Contract), args.Error(1)
}

func (m *MockContractService) UpdateFees(ctx context.Context, id uuid.UUID, fees float64) (*contract.Contract, error) {
	args := m.Called(ctx, id, fees)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractService) UpdatePrice(ctx context.Context, id uuid.UUID, price float64) (*contract.Contract, error) {
	args := m.Called(ctx, id, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractService) OnChainState(ctx context.Context, id uuid.UUID) (*chain.ContractState, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.ContractState), args.Error(1)
}

func (m *MockContractService) ListTransfers(ctx context.Context, id uuid.UUID, page, perPage int) ([]*transfer.Transfer, error) {
	args := m.Called(ctx, id, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Transfer), args.Error(1)
}

type MockChainReader struct {
	mock.Mock
}

func (m *MockChainReader) State(ctx context.Context, contractAddr string) (*chain.ContractState, error) {
	args := m.Called(ctx, contractAddr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.ContractState), args.Error(1)
}

// MockTxRunner executes the function with a MockTx so WithTx wiring can be
// observed
type MockTxRunner struct {
	mock.Mock
}

func (m *MockTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.Called(ctx)
	return fn(&MockTx{})
}

// MockTx implements the pgx.Tx interface for testing
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, nil
}

func (m *MockTx) Commit(ctx context.Context) error {
	return nil
}

func (m *MockTx) Rollback(ctx context.Context) error {
	return nil
}

func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return &pgconn.StatementDescription{}, nil
}

func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *MockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *MockTx) Conn() *pgx.Conn {
	return nil
}

var _ intent.Repository = (*MockIntentRepository)(nil)
var _ contract.Repository = (*MockContractRepository)(nil)
var _ voucher.Repository = (*MockVoucherRepository)(nil)
var _ transfer.Repository = (*MockTransferRepository)(nil)
var _ producers.MessagePublisher = (*MockMessagingProducer)(nil)
var _ ContractService = (*MockContractService)(nil)
var _ ChainReader = (*MockChainReader)(nil)
var _ TxRunner = (*MockTxRunner)(nil)
