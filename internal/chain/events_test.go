package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packEvent(t *testing.T, name string, args ...interface{}) types.Log {
	t.Helper()
	contractABI, err := ContractABI()
	require.NoError(t, err)

	event, ok := contractABI.Events[name]
	require.True(t, ok)

	data, err := event.Inputs.Pack(args...)
	require.NoError(t, err)

	return types.Log{
		Topics: []common.Hash{event.ID},
		Data:   data,
	}
}

func TestDecodeVoucherUsed(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	t.Run("valid payload", func(t *testing.T) {
		log := packEvent(t, EventVoucherUsed,
			[]common.Address{owner, owner},
			[]*big.Int{big.NewInt(7), big.NewInt(8)},
			[]uint8{1, 1},
		)

		event, err := DecodeVoucherUsed(log)
		require.NoError(t, err)
		assert.Equal(t, []string{owner.Hex(), owner.Hex()}, event.Owners)
		assert.Equal(t, []uint64{7, 8}, event.VoucherIDs)
		assert.Equal(t, []shared.VoucherStatus{shared.VoucherStatusUsed, shared.VoucherStatusUsed}, event.Statuses)
	})

	t.Run("unknown status maps to invalid", func(t *testing.T) {
		log := packEvent(t, EventVoucherUsed,
			[]common.Address{owner},
			[]*big.Int{big.NewInt(7)},
			[]uint8{9},
		)

		event, err := DecodeVoucherUsed(log)
		require.NoError(t, err)
		assert.Equal(t, []shared.VoucherStatus{shared.VoucherStatusInvalid}, event.Statuses)
	})

	t.Run("garbage payload fails closed", func(t *testing.T) {
		log := types.Log{Data: []byte{0x01, 0x02, 0x03}}

		event, err := DecodeVoucherUsed(log)
		assert.Error(t, err)
		assert.Nil(t, event)
	})
}

func TestDecodeVoucherGenerated(t *testing.T) {
	owner := common.HexToAddress("0x2222222222222222222222222222222222222222")

	log := packEvent(t, EventVoucherGenerated,
		[]common.Address{owner},
		[]*big.Int{big.NewInt(42)},
		[]*big.Int{big.NewInt(2_500_000)},
	)

	event, err := DecodeVoucherGenerated(log)
	require.NoError(t, err)
	assert.Equal(t, []string{owner.Hex()}, event.Owners)
	assert.Equal(t, []uint64{42}, event.VoucherIDs)
	assert.Equal(t, []float64{2.5}, event.Values)
}

func TestDecodeTransfer(t *testing.T) {
	from := common.HexToAddress("0x3333333333333333333333333333333333333333")
	to := common.HexToAddress("0x4444444444444444444444444444444444444444")

	t.Run("valid payload", func(t *testing.T) {
		log := packEvent(t, EventTransfer,
			[]common.Address{from},
			[]common.Address{to},
			[]*big.Int{big.NewInt(10_000_000)},
			[]uint8{0},
		)

		records, err := DecodeTransfer(log)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, from.Hex(), records[0].From)
		assert.Equal(t, to.Hex(), records[0].To)
		assert.Equal(t, 10.0, records[0].Value)
		assert.Equal(t, shared.TransferTypeDonation, records[0].Type)
	})

	t.Run("unknown transfer type fails closed", func(t *testing.T) {
		log := packEvent(t, EventTransfer,
			[]common.Address{from},
			[]common.Address{to},
			[]*big.Int{big.NewInt(10_000_000)},
			[]uint8{7},
		)

		records, err := DecodeTransfer(log)
		assert.Error(t, err)
		assert.Nil(t, records)
	})
}
