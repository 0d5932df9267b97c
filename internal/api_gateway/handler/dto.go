package handler

// CreateContractRequest represents a request to create a per-country contract
type CreateContractRequest struct {
	CountryCode  string  `json:"country_code" binding:"required,len=2"`
	VoucherPrice float64 `json:"voucher_price" binding:"required,gt=0"`
	Fees         float64 `json:"fees" binding:"min=0,max=100"`
}

// UpdateFeesRequest represents a request to change a contract's management fees
type UpdateFeesRequest struct {
	Fees float64 `json:"fees" binding:"min=0,max=100"`
}

// UpdatePriceRequest represents a request to change a contract's voucher price
type UpdatePriceRequest struct {
	Price float64 `json:"price" binding:"required,gt=0"`
}

// ContractResponse represents a contract in API responses
type ContractResponse struct {
	ID           string  `json:"id"`
	CountryCode  string  `json:"country_code"`
	VoucherPrice float64 `json:"voucher_price"`
	Fees         float64 `json:"fees"`
	Address      string  `json:"address,omitempty"`
	Deployed     bool    `json:"deployed"`
	CreatedAt    string  `json:"created_at"`
}

// DonationRecipientRequest is one wallet receiving vouchers
type DonationRecipientRequest struct {
	Owner string `json:"owner" binding:"required"`
	Count int    `json:"count" binding:"required,min=1,max=100"`
}

// CreateDonationRequest represents a donation creating vouchers
type CreateDonationRequest struct {
	ContractID string                     `json:"contract_id" binding:"required,uuid"`
	Donor      string                     `json:"donor" binding:"required"`
	Recipients []DonationRecipientRequest `json:"recipients" binding:"required,min=1,dive"`
}

// RedeemVoucherRequest represents a redemption request against a voucher
type RedeemVoucherRequest struct {
	Merchant string `json:"merchant" binding:"required"`
}

// VoucherResponse represents a voucher in API responses
type VoucherResponse struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Owner      string  `json:"owner"`
	Value      float64 `json:"value"`
	VoucherID  uint64  `json:"voucher_id"`
	ContractID string  `json:"contract_id"`
	CreatedAt  string  `json:"created_at"`
}

// TransactionResponse represents a settlement intent in API responses
type TransactionResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	ReferenceID string `json:"reference_id"`
	Hash        string `json:"hash,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// TransferResponse represents an observed on-chain fund movement
type TransferResponse struct {
	ID         string  `json:"id"`
	ContractID string  `json:"contract_id"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Value      float64 `json:"value"`
	Type       string  `json:"type"`
	TxHash     string  `json:"tx_hash"`
	CreatedAt  string  `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
