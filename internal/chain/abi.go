package chain

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// mealVoucherABI is the functional surface of the per-country voucher
// contract. Only the functions and events this service calls or listens to
// are declared.
const mealVoucherABI = `[
	{
		"inputs": [
			{"name": "stableCoin", "type": "address"},
			{"name": "voucherPrice", "type": "uint256"},
			{"name": "fees", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "constructor"
	},
	{
		"inputs": [
			{"name": "owners", "type": "address[]"},
			{"name": "voucherIds", "type": "uint256[][]"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "generateVoucher",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "owners", "type": "address[]"},
			{"name": "voucherIds", "type": "uint256[]"},
			{"name": "merchants", "type": "address[]"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "redeemVoucher",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "fees", "type": "uint256"}],
		"name": "updateManagementFees",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "price", "type": "uint256"}],
		"name": "updateVoucherPrice",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getUsdcBalance",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getVoucherPrice",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getCurrentManagementFees",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "getUnusedVoucherAmount",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "voucherId", "type": "uint256"}
		],
		"name": "getMealVoucherDetail",
		"outputs": [
			{"name": "value", "type": "uint256"},
			{"name": "status", "type": "uint8"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getTotalVoucherIssued",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getTotalVoucherUsed",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "name": "owners", "type": "address[]"},
			{"indexed": false, "name": "voucherIds", "type": "uint256[]"},
			{"indexed": false, "name": "values", "type": "uint256[]"}
		],
		"name": "VoucherGenerated",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "name": "owners", "type": "address[]"},
			{"indexed": false, "name": "voucherIds", "type": "uint256[]"},
			{"indexed": false, "name": "statuses", "type": "uint8[]"}
		],
		"name": "VoucherUsed",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "name": "froms", "type": "address[]"},
			{"indexed": false, "name": "tos", "type": "address[]"},
			{"indexed": false, "name": "values", "type": "uint256[]"},
			{"indexed": false, "name": "transferTypes", "type": "uint8[]"}
		],
		"name": "Transfer",
		"type": "event"
	}
]`

// Event names emitted by the voucher contract
const (
	EventVoucherGenerated = "VoucherGenerated"
	EventVoucherUsed      = "VoucherUsed"
	EventTransfer         = "Transfer"
)

// mealVoucherBin is the compiled contract creation bytecode, committed as a
// build artifact of the contracts repository.
//
//go:embed mealvoucher_bytecode.hex
var mealVoucherBin string

var (
	parsedABIOnce sync.Once
	parsedABI     abi.ABI
	parsedABIErr  error
)

// ContractABI returns the parsed voucher contract ABI
func ContractABI() (abi.ABI, error) {
	parsedABIOnce.Do(func() {
		parsedABI, parsedABIErr = abi.JSON(strings.NewReader(mealVoucherABI))
	})
	if parsedABIErr != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse contract ABI: %w", parsedABIErr)
	}
	return parsedABI, nil
}
