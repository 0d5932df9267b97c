package chain

import (
	"math"
	"math/big"
)

// Scale is the fixed-point factor for on-chain monetary amounts. The contract
// stores micro-units to avoid floating-point drift.
const Scale = 1_000_000

// ToChain converts a decimal domain value to the contract's micro-unit
// integer representation
func ToChain(value float64) *big.Int {
	return big.NewInt(int64(math.Round(value * Scale)))
}

// FromChain converts a micro-unit integer back to a decimal domain value
func FromChain(n *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(n), big.NewFloat(Scale)).Float64()
	return f
}
