package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/voucher"
)

type voucherServiceMocks struct {
	db          *MockTxRunner
	voucherRepo *MockVoucherRepository
	intentRepo  *MockIntentRepository
	contractSvc *MockContractService
	producer    *MockMessagingProducer
}

func newVoucherService(t *testing.T) (VoucherService, *voucherServiceMocks) {
	t.Helper()
	m := &voucherServiceMocks{
		db:          new(MockTxRunner),
		voucherRepo: new(MockVoucherRepository),
		intentRepo:  new(MockIntentRepository),
		contractSvc: new(MockContractService),
		producer:    new(MockMessagingProducer),
	}
	svc := NewVoucherService(newTestLogger(), m.db, m.voucherRepo, m.intentRepo, m.contractSvc, m.producer)
	return svc, m
}

func TestVoucherService_Donate(t *testing.T) {
	t.Run("CreatesVoucherAndIntentPerRecipientCount", func(t *testing.T) {
		svc, m := newVoucherService(t)

		c := deployedContract("FR", "0xabc")
		m.contractSvc.On("GetContractByID", mock.Anything, c.ID).Return(c, nil).Once()
		m.db.On("ExecuteTx", mock.Anything).Return(nil).Once()
		m.voucherRepo.On("WithTx", mock.Anything).Return().Once()
		m.intentRepo.On("WithTx", mock.Anything).Return().Once()
		m.voucherRepo.On("Create", mock.Anything, mock.MatchedBy(func(v *voucher.Voucher) bool {
			return v.ContractID == c.ID && v.Value == c.VoucherPrice && v.Status == shared.VoucherStatusValid
		})).Return(nil).Times(3)
		m.intentRepo.On("Create", mock.Anything, mock.MatchedBy(func(in *intent.Intent) bool {
			return in.Kind == shared.IntentKindGenerateVoucher && in.From == "0xdonor"
		})).Return(nil).Times(3)
		m.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		vouchers, err := svc.Donate(context.Background(), c.ID, "0xdonor", []DonationRecipient{
			{Owner: "0xalice", Count: 2},
			{Owner: "0xbob", Count: 1},
		})

		assert.NoError(t, err)
		assert.Len(t, vouchers, 3)
		assert.Equal(t, "0xalice", vouchers[0].Owner)
		assert.Equal(t, "0xalice", vouchers[1].Owner)
		assert.Equal(t, "0xbob", vouchers[2].Owner)
		m.voucherRepo.AssertExpectations(t)
		m.intentRepo.AssertExpectations(t)
		m.producer.AssertExpectations(t)
	})

	t.Run("ContractNotFound", func(t *testing.T) {
		svc, m := newVoucherService(t)

		id := uuid.New()
		m.contractSvc.On("GetContractByID", mock.Anything, id).
			Return(nil, contract.ErrContractNotFound{ID: id}).Once()

		vouchers, err := svc.Donate(context.Background(), id, "0xdonor", []DonationRecipient{{Owner: "0xalice", Count: 1}})

		assert.Nil(t, vouchers)
		var notFound contract.ErrContractNotFound
		assert.ErrorAs(t, err, &notFound)
		m.db.AssertNotCalled(t, "ExecuteTx", mock.Anything)
	})

	t.Run("EmptyOwnerRollsBack", func(t *testing.T) {
		svc, m := newVoucherService(t)

		c := deployedContract("FR", "0xabc")
		m.contractSvc.On("GetContractByID", mock.Anything, c.ID).Return(c, nil).Once()
		m.db.On("ExecuteTx", mock.Anything).Return(nil).Once()
		m.voucherRepo.On("WithTx", mock.Anything).Return().Once()
		m.intentRepo.On("WithTx", mock.Anything).Return().Once()

		vouchers, err := svc.Donate(context.Background(), c.ID, "0xdonor", []DonationRecipient{{Owner: "", Count: 1}})

		assert.Nil(t, vouchers)
		assert.ErrorIs(t, err, voucher.ErrEmptyOwner)
		m.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVoucherService_Redeem(t *testing.T) {
	newValidVoucher := func(owner string) *voucher.Voucher {
		v, _ := voucher.NewVoucher(uuid.New(), owner, 10)
		return v
	}

	t.Run("Success", func(t *testing.T) {
		svc, m := newVoucherService(t)

		v := newValidVoucher("0xalice")
		m.voucherRepo.On("GetByID", mock.Anything, v.ID).Return(v, nil).Once()
		m.intentRepo.On("HasActiveRedeem", mock.Anything, v.ID).Return(false, nil).Once()
		m.intentRepo.On("Create", mock.Anything, mock.MatchedBy(func(in *intent.Intent) bool {
			return in.Kind == shared.IntentKindRedeemVoucher &&
				in.From == "0xalice" &&
				in.To == "0xmerchant" &&
				in.ReferenceID == v.ID
		})).Return(nil).Once()
		m.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		in, err := svc.Redeem(context.Background(), v.ID, "0xmerchant")

		assert.NoError(t, err)
		assert.Equal(t, shared.IntentStatusPending, in.Status)
		m.intentRepo.AssertExpectations(t)
		m.producer.AssertExpectations(t)
	})

	t.Run("UsedVoucherIsNotRedeemable", func(t *testing.T) {
		svc, m := newVoucherService(t)

		v := newValidVoucher("0xalice")
		v.Status = shared.VoucherStatusUsed
		m.voucherRepo.On("GetByID", mock.Anything, v.ID).Return(v, nil).Once()

		in, err := svc.Redeem(context.Background(), v.ID, "0xmerchant")

		assert.Nil(t, in)
		assert.ErrorIs(t, err, voucher.ErrNotRedeemable)
		m.intentRepo.AssertNotCalled(t, "HasActiveRedeem", mock.Anything, mock.Anything)
	})

	t.Run("SecondRedeemIsRefused", func(t *testing.T) {
		svc, m := newVoucherService(t)

		v := newValidVoucher("0xalice")
		m.voucherRepo.On("GetByID", mock.Anything, v.ID).Return(v, nil).Once()
		m.intentRepo.On("HasActiveRedeem", mock.Anything, v.ID).Return(true, nil).Once()

		in, err := svc.Redeem(context.Background(), v.ID, "0xmerchant")

		assert.Nil(t, in)
		assert.ErrorIs(t, err, ErrRedeemInFlight)
		m.intentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("VoucherNotFound", func(t *testing.T) {
		svc, m := newVoucherService(t)

		id := uuid.New()
		m.voucherRepo.On("GetByID", mock.Anything, id).
			Return(nil, voucher.ErrVoucherNotFound{ID: id}).Once()

		in, err := svc.Redeem(context.Background(), id, "0xmerchant")

		assert.Nil(t, in)
		var notFound voucher.ErrVoucherNotFound
		assert.ErrorAs(t, err, &notFound)
	})
}
