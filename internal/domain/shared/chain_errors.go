package shared

// ChainErrorCode is the closed set of classified on-chain failures. Codes are
// written verbatim into an intent's status column as its terminal state, so
// they double as IntentStatus values.
type ChainErrorCode string

const (
	ChainErrInsufficientFunds ChainErrorCode = "INSUFFICIENT_FUNDS"
	ChainErrInvalidVoucher    ChainErrorCode = "INVALID_VOUCHER"
	ChainErrUsedVoucher       ChainErrorCode = "USED_VOUCHER"
	ChainErrExpiredVoucher    ChainErrorCode = "EXPIRED_VOUCHER"
	ChainErrFeesBelowZero     ChainErrorCode = "FEES_BELOW_ZERO"
	ChainErrFeesAboveHundred  ChainErrorCode = "FEES_ABOVE_HUNDRED"
	ChainErrInvalidPrice      ChainErrorCode = "INVALID_PRICE"
	ChainErrDeployFailed      ChainErrorCode = "DEPLOY_FAILED"
	ChainErrTimeout           ChainErrorCode = "TIMEOUT"
	ChainErrUnknown           ChainErrorCode = "UNKNOWN_ERROR"
)

// Status converts the code to the intent status it terminates with
func (c ChainErrorCode) Status() IntentStatus {
	return IntentStatus(c)
}
