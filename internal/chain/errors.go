package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mealvoucher-platform/internal/domain/shared"
)

// Error is the typed outcome of a failed gateway call. Every mutating
// operation either returns a transaction hash or an *Error; nothing else
// crosses the gateway boundary.
type Error struct {
	Code shared.ChainErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Canceled reports whether the call failed because its context was
// canceled rather than because of anything the chain said. The outcome
// of the submitted transaction is unknown in that case.
func (e *Error) Canceled() bool {
	return errors.Is(e.Err, context.Canceled)
}

// newError wraps a raw client error with its classified code
func newError(code shared.ChainErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

// revertPatterns maps contract revert reason substrings to classified codes.
// Matching is case-insensitive and first-match-wins; unmatched reasons fall
// through to UNKNOWN_ERROR.
var revertPatterns = []struct {
	substr string
	code   shared.ChainErrorCode
}{
	{"insufficient funds", shared.ChainErrInsufficientFunds},
	{"insufficient balance", shared.ChainErrInsufficientFunds},
	{"voucher already used", shared.ChainErrUsedVoucher},
	{"already used", shared.ChainErrUsedVoucher},
	{"voucher expired", shared.ChainErrExpiredVoucher},
	{"invalid voucher", shared.ChainErrInvalidVoucher},
	{"voucher does not exist", shared.ChainErrInvalidVoucher},
	{"fees cannot be negative", shared.ChainErrFeesBelowZero},
	{"fees below zero", shared.ChainErrFeesBelowZero},
	{"fees cannot exceed 100", shared.ChainErrFeesAboveHundred},
	{"fees above hundred", shared.ChainErrFeesAboveHundred},
	{"invalid price", shared.ChainErrInvalidPrice},
	{"price must be", shared.ChainErrInvalidPrice},
}

// classify maps a raw error from the client into the closed code set
func classify(err error) shared.ChainErrorCode {
	if err == nil {
		return shared.ChainErrUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return shared.ChainErrTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, p := range revertPatterns {
		if strings.Contains(msg, p.substr) {
			return p.code
		}
	}

	return shared.ChainErrUnknown
}
