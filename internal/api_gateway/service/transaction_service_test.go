package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTransactionService_GetByID(t *testing.T) {
	logger := newTestLogger()
	intentRepo := new(MockIntentRepository)
	svc := NewTransactionService(logger, intentRepo, nil)

	t.Run("Success", func(t *testing.T) {
		in := intent.NewIntent(shared.IntentKindGenerateVoucher, "0xdonor", "0xowner", uuid.New())
		intentRepo.On("GetByID", mock.Anything, in.ID).Return(in, nil).Once()

		found, err := svc.GetByID(context.Background(), in.ID)

		assert.NoError(t, err)
		assert.Equal(t, in, found)
		intentRepo.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		id := uuid.New()
		intentRepo.On("GetByID", mock.Anything, id).
			Return(nil, intent.ErrIntentNotFound{ID: id}).Once()

		found, err := svc.GetByID(context.Background(), id)

		assert.Nil(t, found)
		var notFound intent.ErrIntentNotFound
		assert.ErrorAs(t, err, &notFound)
		intentRepo.AssertExpectations(t)
	})
}

func TestTransactionService_ListByStatus(t *testing.T) {
	logger := newTestLogger()
	intentRepo := new(MockIntentRepository)
	svc := NewTransactionService(logger, intentRepo, nil)

	intents := []*intent.Intent{
		intent.NewIntent(shared.IntentKindContractDeployment, "", "", uuid.New()),
	}
	// page 3 with 20 per page translates to offset 40
	intentRepo.On("ListByStatus", mock.Anything, shared.IntentStatusPending, 20, 40).
		Return(intents, nil).Once()

	found, err := svc.ListByStatus(context.Background(), shared.IntentStatusPending, 3, 20)

	assert.NoError(t, err)
	assert.Equal(t, intents, found)
	intentRepo.AssertExpectations(t)
}

func TestTransactionService_Requeue(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		logger := newTestLogger()
		intentRepo := new(MockIntentRepository)
		producer := new(MockMessagingProducer)
		svc := NewTransactionService(logger, intentRepo, producer)

		in := intent.NewIntent(shared.IntentKindRedeemVoucher, "0xowner", "0xmerchant", uuid.New())
		intentRepo.On("Requeue", mock.Anything, in.ID).Return(nil).Once()
		intentRepo.On("GetByID", mock.Anything, in.ID).Return(in, nil).Once()
		producer.On("Publish", mock.Anything, in.ID.String(), mock.Anything).Return(nil).Once()

		requeued, err := svc.Requeue(context.Background(), in.ID)

		assert.NoError(t, err)
		assert.Equal(t, in, requeued)
		intentRepo.AssertExpectations(t)
		producer.AssertExpectations(t)
	})

	t.Run("NotRequeueable", func(t *testing.T) {
		logger := newTestLogger()
		intentRepo := new(MockIntentRepository)
		producer := new(MockMessagingProducer)
		svc := NewTransactionService(logger, intentRepo, producer)

		id := uuid.New()
		intentRepo.On("Requeue", mock.Anything, id).
			Return(intent.ErrNotRequeueable{ID: id, Status: shared.IntentStatusSuccess}).Once()

		requeued, err := svc.Requeue(context.Background(), id)

		assert.Nil(t, requeued)
		var notRequeueable intent.ErrNotRequeueable
		assert.ErrorAs(t, err, &notRequeueable)
		producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		intentRepo.AssertExpectations(t)
	})

	t.Run("NudgeFailureDoesNotFailRequeue", func(t *testing.T) {
		logger := newTestLogger()
		intentRepo := new(MockIntentRepository)
		producer := new(MockMessagingProducer)
		svc := NewTransactionService(logger, intentRepo, producer)

		in := intent.NewIntent(shared.IntentKindGenerateVoucher, "0xdonor", "0xowner", uuid.New())
		intentRepo.On("Requeue", mock.Anything, in.ID).Return(nil).Once()
		intentRepo.On("GetByID", mock.Anything, in.ID).Return(in, nil).Once()
		producer.On("Publish", mock.Anything, in.ID.String(), mock.Anything).
			Return(errors.New("broker unavailable")).Once()

		requeued, err := svc.Requeue(context.Background(), in.ID)

		assert.NoError(t, err)
		assert.Equal(t, in, requeued)
		producer.AssertExpectations(t)
	})
}
