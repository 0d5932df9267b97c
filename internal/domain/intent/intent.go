package intent

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

// Intent is the unit of settlement work. The API layer inserts intents in
// PENDING status; the settlement worker moves them to SUCCESS or to a
// classified chain error code, never backward.
type Intent struct {
	ID          uuid.UUID           `json:"id"`
	Kind        shared.IntentKind   `json:"kind"`
	Status      shared.IntentStatus `json:"status"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	ReferenceID uuid.UUID           `json:"reference_id"` // Contract.ID or Voucher.ID depending on kind
	Hash        *string             `json:"hash,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// NewIntent creates a pending intent for the given operation
func NewIntent(kind shared.IntentKind, from, to string, referenceID uuid.UUID) *Intent {
	return &Intent{
		ID:          uuid.New(),
		Kind:        kind,
		Status:      shared.IntentStatusPending,
		From:        from,
		To:          to,
		ReferenceID: referenceID,
		CreatedAt:   time.Now(),
	}
}

// VoucherWork is a pending GENERATE_VOUCHER or REDEEM_VOUCHER intent joined
// with the voucher row it references, so the grouper can target the right
// contract without further lookups.
type VoucherWork struct {
	Intent
	VoucherID    uuid.UUID // vouchers.id referenced by the intent
	ContractID   uuid.UUID // contract the on-chain call must target
	OnChainID    uint64    // numeric voucher id used by the contract
	OwnerAddress string    // wallet holding the voucher
	Value        float64
}

// ErrIntentNotFound indicates the requested intent does not exist
type ErrIntentNotFound struct {
	ID uuid.UUID
}

func (e ErrIntentNotFound) Error() string {
	return fmt.Sprintf("intent not found: %s", e.ID)
}

// ErrNotRequeueable indicates a requeue was attempted on an intent that is
// not in a terminal error state
type ErrNotRequeueable struct {
	ID     uuid.UUID
	Status shared.IntentStatus
}

func (e ErrNotRequeueable) Error() string {
	return fmt.Sprintf("intent %s cannot be requeued from status %s", e.ID, e.Status)
}
