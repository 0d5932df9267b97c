package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

// Transfer mirrors one on-chain fund movement observed by the event
// listener. Rows are insert-only; there is nothing to reconcile them
// against.
type Transfer struct {
	ID         uuid.UUID           `json:"id"`
	ContractID uuid.UUID           `json:"contract_id"`
	From       string              `json:"from"`
	To         string              `json:"to"`
	Value      float64             `json:"value"`
	Type       shared.TransferType `json:"type"`
	TxHash     string              `json:"tx_hash"`
	CreatedAt  time.Time           `json:"created_at"`
}

// NewTransfer creates a transfer record for an observed chain event
func NewTransfer(contractID uuid.UUID, from, to string, value float64, transferType shared.TransferType, txHash string) *Transfer {
	return &Transfer{
		ID:         uuid.New(),
		ContractID: contractID,
		From:       from,
		To:         to,
		Value:      value,
		Type:       transferType,
		TxHash:     txHash,
		CreatedAt:  time.Now(),
	}
}

// Repository defines persistence operations for transfers
type Repository interface {
	// Create inserts a transfer row
	Create(ctx context.Context, t *Transfer) error

	// ListByContract returns transfers for a contract, newest first
	ListByContract(ctx context.Context, contractID uuid.UUID, limit, offset int) ([]*Transfer, error)
}
