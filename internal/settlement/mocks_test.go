package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/journal"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/transfer"
	"github.com/mealvoucher-platform/internal/domain/voucher"
)

// Mock implementations of the cycle's dependencies

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) PendingNonce(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockGateway) Deploy(ctx context.Context, nonce uint64, voucherPrice, fees float64) (string, string, *chain.Error) {
	args := m.Called(ctx, nonce, voucherPrice, fees)
	if args.Get(2) == nil {
		return args.String(0), args.String(1), nil
	}
	return args.String(0), args.String(1), args.Get(2).(*chain.Error)
}

func (m *MockGateway) GenerateVouchers(ctx context.Context, nonce uint64, contractAddr string, call chain.GenerateCall) (string, *chain.Error) {
	args := m.Called(ctx, nonce, contractAddr, call)
	if args.Get(1) == nil {
		return args.String(0), nil
	}
	return args.String(0), args.Get(1).(*chain.Error)
}

func (m *MockGateway) RedeemVouchers(ctx context.Context, nonce uint64, contractAddr string, call chain.RedeemCall) (string, *chain.Error) {
	args := m.Called(ctx, nonce, contractAddr, call)
	if args.Get(1) == nil {
		return args.String(0), nil
	}
	return args.String(0), args.Get(1).(*chain.Error)
}

func (m *MockGateway) UpdateManagementFees(ctx context.Context, nonce uint64, contractAddr string, fees float64) (string, *chain.Error) {
	args := m.Called(ctx, nonce, contractAddr, fees)
	if args.Get(1) == nil {
		return args.String(0), nil
	}
	return args.String(0), args.Get(1).(*chain.Error)
}

func (m *MockGateway) UpdateVoucherPrice(ctx context.Context, nonce uint64, contractAddr string, price float64) (string, *chain.Error) {
	args := m.Called(ctx, nonce, contractAddr, price)
	if args.Get(1) == nil {
		return args.String(0), nil
	}
	return args.String(0), args.Get(1).(*chain.Error)
}

type MockIntentRepo struct {
	mock.Mock
}

func (m *MockIntentRepo) WithTx(tx pgx.Tx) intent.Repository {
	m.Called(tx)
	return m
}

func (m *MockIntentRepo) Create(ctx context.Context, in *intent.Intent) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockIntentRepo) GetByID(ctx context.Context, id uuid.UUID) (*intent.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*intent.Intent), args.Error(1)
}

func (m *MockIntentRepo) GetPendingByKind(ctx context.Context, kind shared.IntentKind, limit int) ([]*intent.Intent, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*intent.Intent), args.Error(1)
}

func (m *MockIntentRepo) GetPendingVoucherWork(ctx context.Context, kind shared.IntentKind, limit int) ([]*intent.VoucherWork, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*intent.VoucherWork), args.Error(1)
}

func (m *MockIntentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.IntentStatus, hash *string) error {
	args := m.Called(ctx, id, status, hash)
	return args.Error(0)
}

func (m *MockIntentRepo) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status shared.IntentStatus, hash *string) error {
	args := m.Called(ctx, ids, status, hash)
	return args.Error(0)
}

func (m *MockIntentRepo) HasActiveRedeem(ctx context.Context, voucherID uuid.UUID) (bool, error) {
	args := m.Called(ctx, voucherID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIntentRepo) ListByStatus(ctx context.Context, status shared.IntentStatus, limit, offset int) ([]*intent.Intent, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*intent.Intent), args.Error(1)
}

func (m *MockIntentRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockContractRepo struct {
	mock.Mock
}

func (m *MockContractRepo) WithTx(tx pgx.Tx) contract.Repository {
	m.Called(tx)
	return m
}

func (m *MockContractRepo) Create(ctx context.Context, c *contract.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContractRepo) GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*contract.Contract, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*contract.Contract), args.Error(1)
}

func (m *MockContractRepo) List(ctx context.Context) ([]*contract.Contract, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*contract.Contract), args.Error(1)
}

func (m *MockContractRepo) ListDeployed(ctx context.Context) ([]*contract.Contract, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*contract.Contract), args.Error(1)
}

func (m *MockContractRepo) SetAddress(ctx context.Context, id uuid.UUID, address string) error {
	args := m.Called(ctx, id, address)
	return args.Error(0)
}

func (m *MockContractRepo) UpdateFees(ctx context.Context, id uuid.UUID, fees float64) error {
	args := m.Called(ctx, id, fees)
	return args.Error(0)
}

func (m *MockContractRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price float64) error {
	args := m.Called(ctx, id, price)
	return args.Error(0)
}

type MockVoucherRepo struct {
	mock.Mock
}

func (m *MockVoucherRepo) WithTx(tx pgx.Tx) voucher.Repository {
	m.Called(tx)
	return m
}

func (m *MockVoucherRepo) Create(ctx context.Context, v *voucher.Voucher) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVoucherRepo) GetByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.VoucherStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockVoucherRepo) UpdateStatusByOnChainID(ctx context.Context, owner string, onChainID uint64, status shared.VoucherStatus) (int64, error) {
	args := m.Called(ctx, owner, onChainID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVoucherRepo) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*voucher.Voucher, error) {
	args := m.Called(ctx, owner, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*voucher.Voucher), args.Error(1)
}

type MockTransferRepo struct {
	mock.Mock
}

func (m *MockTransferRepo) Create(ctx context.Context, t *transfer.Transfer) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransferRepo) ListByContract(ctx context.Context, contractID uuid.UUID, limit, offset int) ([]*transfer.Transfer, error) {
	args := m.Called(ctx, contractID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Transfer), args.Error(1)
}

type MockJournalRepo struct {
	mock.Mock
}

func (m *MockJournalRepo) Create(ctx context.Context, record *journal.CycleRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockJournalRepo) GetByCycleID(ctx context.Context, cycleID uuid.UUID) (*journal.CycleRecord, error) {
	args := m.Called(ctx, cycleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.CycleRecord), args.Error(1)
}

func (m *MockJournalRepo) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*journal.CycleRecord, error) {
	args := m.Called(ctx, startTime, endTime, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.CycleRecord), args.Error(1)
}

type MockDLQ struct {
	mock.Mock
}

func (m *MockDLQ) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	args := m.Called(ctx, key, originalMessageValue, reason)
	return args.Error(0)
}

func (m *MockDLQ) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockTxRunner executes the function with a MockTx so repository WithTx
// wiring can be observed
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
