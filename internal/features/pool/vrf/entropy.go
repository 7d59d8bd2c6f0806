// Package vrf derives the draw seed and picks a weighted winner.
//
// The seed is NOT cryptographically secure: every input is observable by
// the caller who triggers the draw. Values must stay bit-exact so that
// historical draws can be replayed.
package vrf

// Entropy is the set of observable signals mixed into a draw seed.
type Entropy struct {
	UnixTime        int64  `json:"unix_time"`
	Slot            uint64 `json:"slot"`
	Epoch           uint64 `json:"epoch"`
	TotalDeposited  uint64 `json:"total_deposited"`
	TotalDepositors uint32 `json:"total_depositors"`
}

const (
	timeFactor       = 31
	slotFactor       = 17
	epochFactor      = 13
	depositedFactor  = 7
	depositorsFactor = 5
)

// Mix combines the entropy signals into a 64-bit seed.
// All products and the final sum wrap in two's complement. The depositor
// term wraps at 32 bits before it is widened.
func Mix(e Entropy) int64 {
	e1 := e.UnixTime * timeFactor
	e2 := int64(e.Slot * slotFactor)
	e3 := int64(e.Epoch * epochFactor)
	e4 := int64(e.TotalDeposited * depositedFactor)
	e5 := int64(e.TotalDepositors * depositorsFactor)

	return e1 + e2 + e3 + e4 + e5
}
