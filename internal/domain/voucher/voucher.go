package voucher

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

// Common validation errors
var (
	ErrEmptyOwner    = errors.New("voucher owner address cannot be empty")
	ErrInvalidValue  = errors.New("voucher value must be positive")
	ErrAlreadyUsed   = errors.New("voucher has already been used")
	ErrNotRedeemable = errors.New("voucher is not in a redeemable state")
)

// Voucher represents one meal voucher. OnChainID is the numeric id the
// contract knows the voucher by; it is distinct from the row's UUID.
type Voucher struct {
	ID         uuid.UUID            `json:"id"`
	Status     shared.VoucherStatus `json:"status"`
	Owner      string               `json:"owner"`
	Value      float64              `json:"value"`
	OnChainID  uint64               `json:"voucher_id"`
	ContractID uuid.UUID            `json:"contract_id"`
	CreatedAt  time.Time            `json:"created_at"`
}

// NewVoucher creates a voucher in VALID status for the given contract. The
// on-chain id is assigned by the database sequence on insert.
func NewVoucher(contractID uuid.UUID, owner string, value float64) (*Voucher, error) {
	if owner == "" {
		return nil, ErrEmptyOwner
	}
	if value <= 0 {
		return nil, ErrInvalidValue
	}

	return &Voucher{
		ID:         uuid.New(),
		Status:     shared.VoucherStatusValid,
		Owner:      owner,
		Value:      value,
		ContractID: contractID,
		CreatedAt:  time.Now(),
	}, nil
}

// Redeemable reports whether a redemption intent may be created for the
// voucher
func (v *Voucher) Redeemable() bool {
	return v.Status == shared.VoucherStatusValid
}

// ErrVoucherNotFound indicates the requested voucher does not exist
type ErrVoucherNotFound struct {
	ID uuid.UUID
}

func (e ErrVoucherNotFound) Error() string {
	return fmt.Sprintf("voucher not found: %s", e.ID)
}
