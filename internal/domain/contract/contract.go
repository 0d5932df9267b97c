package contract

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyCountryCode = errors.New("country code cannot be empty")
	ErrInvalidFees      = errors.New("fees must be between 0 and 100")
	ErrPriceTooSmall    = errors.New("voucher price must be at least 0.000001")
)

// MinVoucherPrice is the smallest representable price. Anything below this
// rounds to zero in the contract's micro-unit encoding and would mint free
// vouchers.
const MinVoucherPrice = 0.000001

// Contract represents one deployed (or deploying) voucher contract, one per
// supported country. Address stays nil until the deployment intent settles.
type Contract struct {
	ID           uuid.UUID `json:"id"`
	CountryCode  string    `json:"country_code"`
	VoucherPrice float64   `json:"voucher_price"`
	Fees         float64   `json:"fees"` // management fees, percent 0-100
	Address      *string   `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewContract creates an undeployed contract for a country
func NewContract(countryCode string, voucherPrice, fees float64) (*Contract, error) {
	if countryCode == "" {
		return nil, ErrEmptyCountryCode
	}
	if fees < 0 || fees > 100 {
		return nil, ErrInvalidFees
	}
	if voucherPrice < MinVoucherPrice {
		return nil, ErrPriceTooSmall
	}

	return &Contract{
		ID:           uuid.New(),
		CountryCode:  countryCode,
		VoucherPrice: voucherPrice,
		Fees:         fees,
		CreatedAt:    time.Now(),
	}, nil
}

// Deployed reports whether the contract is usable for voucher operations
func (c *Contract) Deployed() bool {
	return c.Address != nil && *c.Address != ""
}

// ErrContractNotFound indicates the requested contract does not exist
type ErrContractNotFound struct {
	ID uuid.UUID
}

func (e ErrContractNotFound) Error() string {
	return fmt.Sprintf("contract not found: %s", e.ID)
}

// ErrDuplicateCountry indicates a contract already exists for the country
type ErrDuplicateCountry struct {
	CountryCode string
}

func (e ErrDuplicateCountry) Error() string {
	return fmt.Sprintf("contract already exists for country %s", e.CountryCode)
}
