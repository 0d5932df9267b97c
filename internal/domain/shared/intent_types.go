package shared

// IntentKind defines the settlement operations an intent can request
type IntentKind string

const (
	IntentKindContractDeployment IntentKind = "CONTRACT_DEPLOYMENT"
	IntentKindTransfer           IntentKind = "TRANSFER"
	IntentKindRedeemVoucher      IntentKind = "REDEEM_VOUCHER"
	IntentKindGenerateVoucher    IntentKind = "GENERATE_VOUCHER"
	IntentKindUpdateFees         IntentKind = "UPDATE_FEES"
	IntentKindUpdatePrice        IntentKind = "UPDATE_PRICE"
)

// IntentStatus defines intent settlement states. PENDING is the only
// non-terminal state; everything else is either SUCCESS or one of the
// ChainErrorCode values written verbatim as a terminal status.
type IntentStatus string

const (
	IntentStatusPending IntentStatus = "PENDING"
	IntentStatusSuccess IntentStatus = "SUCCESS"
)

// IsTerminal reports whether a status can no longer change
func (s IntentStatus) IsTerminal() bool {
	return s != IntentStatusPending
}

// VoucherStatus defines voucher lifecycle states
type VoucherStatus string

const (
	VoucherStatusValid   VoucherStatus = "VALID"
	VoucherStatusUsed    VoucherStatus = "USED"
	VoucherStatusInvalid VoucherStatus = "INVALID"
)

// TransferType categorizes on-chain fund movements mirrored by the listener
type TransferType string

const (
	TransferTypeDonation   TransferType = "DONATION"
	TransferTypeRedemption TransferType = "REDEMPTION"
	TransferTypeFees       TransferType = "FEES"
)
