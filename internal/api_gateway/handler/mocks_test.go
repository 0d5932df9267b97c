package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mealvoucher-platform/internal/api_gateway/service"
	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/transfer"
	"github.com/mealvoucher-platform/internal/domain/voucher"
)

// Mock implementations of the handler's service dependencies

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

type MockVoucherService struct {
	mock.Mock
}

func (m *MockVoucherService) Donate(ctx context.Context, contractID uuid.UUID, donor string, recipients []service.DonationRecipient) ([]*voucher.Voucher, error) {
	args := m.Called(ctx, contractID, donor, recipients)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherService) GetVoucherByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherService) ListVouchersByOwner(ctx context.Context, owner string, page, perPage int) ([]*voucher.Voucher, error) {
	args := m.Called(ctx, owner, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherService) Redeem(ctx context.Context, voucherID uuid.UUID, merchant string) (*intent.Intent, error) {
	args := m.Called(ctx, voucherID, merchant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*intent.Intent), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) GetByID(ctx context.Context, id uuid.UUID) (*intent.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*intent.Intent), args.Error(1)
}

func (m *MockTransactionService) ListByStatus(ctx context.Context, status shared.IntentStatus, page, perPage int) ([]*intent.Intent, error) {
	args := m.Called(ctx, status, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*intent.Intent), args.Error(1)
}

func (m *MockTransactionService) Requeue(ctx context.Context, id uuid.UUID) (*intent.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*intent.Intent), args.Error(1)
}

var _ service.ContractService = (*MockContractService)(nil)
var _ service.VoucherService = (*MockVoucherService)(nil)
var _ service.TransactionService = (*MockTransactionService)(nil)
