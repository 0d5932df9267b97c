package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected shared.ChainErrorCode
	}{
		{
			name:     "insufficient funds",
			err:      errors.New("execution reverted: Insufficient funds for voucher generation"),
			expected: shared.ChainErrInsufficientFunds,
		},
		{
			name:     "insufficient balance variant",
			err:      errors.New("insufficient balance for transfer"),
			expected: shared.ChainErrInsufficientFunds,
		},
		{
			name:     "used voucher",
			err:      errors.New("execution reverted: Voucher already used"),
			expected: shared.ChainErrUsedVoucher,
		},
		{
			name:     "expired voucher",
			err:      errors.New("execution reverted: Voucher expired"),
			expected: shared.ChainErrExpiredVoucher,
		},
		{
			name:     "invalid voucher",
			err:      errors.New("execution reverted: Invalid voucher"),
			expected: shared.ChainErrInvalidVoucher,
		},
		{
			name:     "nonexistent voucher",
			err:      errors.New("execution reverted: Voucher does not exist"),
			expected: shared.ChainErrInvalidVoucher,
		},
		{
			name:     "negative fees",
			err:      errors.New("execution reverted: Fees cannot be negative"),
			expected: shared.ChainErrFeesBelowZero,
		},
		{
			name:     "fees over limit",
			err:      errors.New("execution reverted: Fees cannot exceed 100"),
			expected: shared.ChainErrFeesAboveHundred,
		},
		{
			name:     "invalid price",
			err:      errors.New("execution reverted: Invalid price"),
			expected: shared.ChainErrInvalidPrice,
		},
		{
			name:     "confirmation timeout",
			err:      fmt.Errorf("failed waiting for confirmation: %w", context.DeadlineExceeded),
			expected: shared.ChainErrTimeout,
		},
		{
			name:     "unrecognized revert reason",
			err:      errors.New("execution reverted: something novel"),
			expected: shared.ChainErrUnknown,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: shared.ChainErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classify(tt.err))
		})
	}
}

func TestError_Canceled(t *testing.T) {
	interrupted := newError(shared.ChainErrTimeout,
		fmt.Errorf("failed waiting for confirmation of 0xabc: %w", context.Canceled))
	assert.True(t, interrupted.Canceled())

	timedOut := newError(shared.ChainErrTimeout,
		fmt.Errorf("failed waiting for confirmation: %w", context.DeadlineExceeded))
	assert.False(t, timedOut.Canceled())

	reverted := newError(shared.ChainErrUsedVoucher, errors.New("execution reverted: Voucher already used"))
	assert.False(t, reverted.Canceled())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("execution reverted: Voucher already used")
	cerr := newError(shared.ChainErrUsedVoucher, cause)

	assert.ErrorIs(t, cerr, cause)
	assert.Contains(t, cerr.Error(), "USED_VOUCHER")
	assert.Contains(t, cerr.Error(), "already used")
}
