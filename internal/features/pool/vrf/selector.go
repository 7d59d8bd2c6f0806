package vrf

import (
	"errors"
	"math"
)

var (
	ErrNoCandidates   = errors.New("no candidates to select from")
	ErrZeroWeight     = errors.New("candidate weight must be positive")
	ErrWeightOverflow = errors.New("total candidate weight overflows")
)

// Candidate is one weighted entry of a draw.
type Candidate struct {
	ID     string `json:"id"`
	Weight uint64 `json:"weight"`
}

// Selection describes the outcome of a draw.
type Selection struct {
	Winner      Candidate `json:"winner"`
	Index       int       `json:"index"`
	Target      uint64    `json:"target"`
	TotalWeight uint64    `json:"total_weight"`
}

// TotalWeight sums candidate weights with overflow checking.
func TotalWeight(candidates []Candidate) (uint64, error) {
	var total uint64
	for _, c := range candidates {
		if c.Weight == 0 {
			return 0, ErrZeroWeight
		}
		if total > math.MaxUint64-c.Weight {
			return 0, ErrWeightOverflow
		}
		total += c.Weight
	}
	return total, nil
}

// Select maps seed onto the ordered candidates. The target is the seed
// reinterpreted as unsigned, reduced modulo the total weight; the first
// candidate whose running sum exceeds the target wins.
func Select(seed int64, candidates []Candidate) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, ErrNoCandidates
	}

	total, err := TotalWeight(candidates)
	if err != nil {
		return Selection{}, err
	}

	target := uint64(seed) % total

	var cumulative uint64
	for i, c := range candidates {
		cumulative += c.Weight
		if target < cumulative {
			return Selection{
				Winner:      c,
				Index:       i,
				Target:      target,
				TotalWeight: total,
			}, nil
		}
	}

	// unreachable: target < total == final cumulative
	last := len(candidates) - 1
	return Selection{Winner: candidates[last], Index: last, Target: target, TotalWeight: total}, nil
}
