package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/platform/messaging/producers"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	intentRepo intent.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, intentRepo intent.Repository, producer producers.MessagePublisher) TransactionService {
	return &TransactionServiceImpl{
		intentRepo: intentRepo,
		producer:   producer,
		logger:     logger,
	}
}

// GetByID retrieves an intent by its ID
func (s *TransactionServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*intent.Intent, error) {
	return s.intentRepo.GetByID(ctx, id)
}

// ListByStatus returns intents in the given status, newest first
func (s *TransactionServiceImpl) ListByStatus(ctx context.Context, status shared.IntentStatus, page, perPage int) ([]*intent.Intent, error) {
	offset := (page - 1) * perPage
	return s.intentRepo.ListByStatus(ctx, status, perPage, offset)
}

// Requeue moves a terminal-error intent back to PENDING so the next cycle
// retries it, then nudges the settlement worker. PENDING and SUCCESS
// intents are refused with intent.ErrNotRequeueable.
func (s *TransactionServiceImpl) Requeue(ctx context.Context, id uuid.UUID) (*intent.Intent, error) {
	if err := s.intentRepo.Requeue(ctx, id); err != nil {
		return nil, err
	}

	in, err := s.intentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Intent requeued", "intent_id", id, "kind", in.Kind)
	publishNudge(ctx, s.logger, s.producer, in)
	return in, nil
}
