package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mealvoucher-platform/internal/domain/shared"
)

// VoucherGeneratedEvent mirrors one VoucherGenerated log. Arrays are
// parallel: index i describes one minted voucher.
type VoucherGeneratedEvent struct {
	Owners     []string
	VoucherIDs []uint64
	Values     []float64
}

// VoucherUsedEvent mirrors one VoucherUsed log. Arrays are parallel: index i
// identifies one voucher by (owner, voucherId) and carries its new status.
type VoucherUsedEvent struct {
	Owners     []string
	VoucherIDs []uint64
	Statuses   []shared.VoucherStatus
}

// TransferRecord is one fund movement within a Transfer log
type TransferRecord struct {
	From  string
	To    string
	Value float64
	Type  shared.TransferType
}

// DecodeVoucherGenerated decodes a VoucherGenerated log, validating shape.
// Malformed payloads return an error and must be dropped by the caller.
func DecodeVoucherGenerated(log types.Log) (*VoucherGeneratedEvent, error) {
	contractABI, err := ContractABI()
	if err != nil {
		return nil, err
	}

	raw, err := contractABI.Unpack(EventVoucherGenerated, log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack VoucherGenerated: %w", err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("unexpected VoucherGenerated arity: %d", len(raw))
	}

	owners, err := decodeAddresses(raw[0])
	if err != nil {
		return nil, fmt.Errorf("invalid VoucherGenerated owners: %w", err)
	}
	ids, err := decodeUints(raw[1])
	if err != nil {
		return nil, fmt.Errorf("invalid VoucherGenerated voucher ids: %w", err)
	}
	values, err := decodeScaled(raw[2])
	if err != nil {
		return nil, fmt.Errorf("invalid VoucherGenerated values: %w", err)
	}
	if len(owners) != len(ids) || len(owners) != len(values) {
		return nil, fmt.Errorf("VoucherGenerated array length mismatch: %d owners, %d ids, %d values",
			len(owners), len(ids), len(values))
	}

	return &VoucherGeneratedEvent{Owners: owners, VoucherIDs: ids, Values: values}, nil
}

// DecodeVoucherUsed decodes a VoucherUsed log, validating shape
func DecodeVoucherUsed(log types.Log) (*VoucherUsedEvent, error) {
	contractABI, err := ContractABI()
	if err != nil {
		return nil, err
	}

	raw, err := contractABI.Unpack(EventVoucherUsed, log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack VoucherUsed: %w", err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("unexpected VoucherUsed arity: %d", len(raw))
	}

	owners, err := decodeAddresses(raw[0])
	if err != nil {
		return nil, fmt.Errorf("invalid VoucherUsed owners: %w", err)
	}
	ids, err := decodeUints(raw[1])
	if err != nil {
		return nil, fmt.Errorf("invalid VoucherUsed voucher ids: %w", err)
	}
	rawStatuses, ok := raw[2].([]uint8)
	if !ok {
		return nil, fmt.Errorf("invalid VoucherUsed statuses: %T", raw[2])
	}
	if len(owners) != len(ids) || len(owners) != len(rawStatuses) {
		return nil, fmt.Errorf("VoucherUsed array length mismatch: %d owners, %d ids, %d statuses",
			len(owners), len(ids), len(rawStatuses))
	}

	statuses := make([]shared.VoucherStatus, len(rawStatuses))
	for i, s := range rawStatuses {
		statuses[i] = decodeVoucherStatus(s)
	}

	return &VoucherUsedEvent{Owners: owners, VoucherIDs: ids, Statuses: statuses}, nil
}

// DecodeTransfer decodes a Transfer log into fund movement records
func DecodeTransfer(log types.Log) ([]TransferRecord, error) {
	contractABI, err := ContractABI()
	if err != nil {
		return nil, err
	}

	raw, err := contractABI.Unpack(EventTransfer, log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack Transfer: %w", err)
	}
	if len(raw) != 4 {
		return nil, fmt.Errorf("unexpected Transfer arity: %d", len(raw))
	}

	froms, err := decodeAddresses(raw[0])
	if err != nil {
		return nil, fmt.Errorf("invalid Transfer senders: %w", err)
	}
	tos, err := decodeAddresses(raw[1])
	if err != nil {
		return nil, fmt.Errorf("invalid Transfer recipients: %w", err)
	}
	values, err := decodeScaled(raw[2])
	if err != nil {
		return nil, fmt.Errorf("invalid Transfer values: %w", err)
	}
	rawTypes, ok := raw[3].([]uint8)
	if !ok {
		return nil, fmt.Errorf("invalid Transfer types: %T", raw[3])
	}
	if len(froms) != len(tos) || len(froms) != len(values) || len(froms) != len(rawTypes) {
		return nil, fmt.Errorf("Transfer array length mismatch: %d froms, %d tos, %d values, %d types",
			len(froms), len(tos), len(values), len(rawTypes))
	}

	records := make([]TransferRecord, len(froms))
	for i := range froms {
		transferType, err := decodeTransferType(rawTypes[i])
		if err != nil {
			return nil, err
		}
		records[i] = TransferRecord{
			From:  froms[i],
			To:    tos[i],
			Value: values[i],
			Type:  transferType,
		}
	}

	return records, nil
}

func decodeAddresses(raw interface{}) ([]string, error) {
	addrs, ok := raw.([]common.Address)
	if !ok {
		return nil, fmt.Errorf("expected address array, got %T", raw)
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out, nil
}

func decodeUints(raw interface{}) ([]uint64, error) {
	nums, ok := raw.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected uint256 array, got %T", raw)
	}
	out := make([]uint64, len(nums))
	for i, n := range nums {
		if n == nil || !n.IsUint64() {
			return nil, fmt.Errorf("uint256 value out of range at index %d", i)
		}
		out[i] = n.Uint64()
	}
	return out, nil
}

func decodeScaled(raw interface{}) ([]float64, error) {
	nums, ok := raw.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected uint256 array, got %T", raw)
	}
	out := make([]float64, len(nums))
	for i, n := range nums {
		if n == nil {
			return nil, fmt.Errorf("nil value at index %d", i)
		}
		out[i] = FromChain(n)
	}
	return out, nil
}

func decodeTransferType(raw uint8) (shared.TransferType, error) {
	switch raw {
	case 0:
		return shared.TransferTypeDonation, nil
	case 1:
		return shared.TransferTypeRedemption, nil
	case 2:
		return shared.TransferTypeFees, nil
	default:
		return "", fmt.Errorf("unknown transfer type: %d", raw)
	}
}
