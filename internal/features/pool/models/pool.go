package models

import (
	"fmt"
	"time"
)

// Variant selects the asset a pool custodies.
type Variant string

const (
	VariantNative Variant = "native"
	VariantStable Variant = "stable"
	VariantYield  Variant = "yield"
)

// Reward increments in base units added by each successful draw.
const (
	NativeRewardUnit uint64 = 1_000_000_000
	StableRewardUnit uint64 = 1_000_000
	YieldRewardUnit  uint64 = 1_000_000
)

// CurrentVersion is the layout version written by Initialize.
const CurrentVersion = 1

// ParseVariant validates a configured variant name.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantNative, VariantStable, VariantYield:
		return v, nil
	default:
		return "", fmt.Errorf("unknown pool variant %q", s)
	}
}

// DefaultRewardUnit returns the per-draw reward increment of the variant.
func (v Variant) DefaultRewardUnit() uint64 {
	switch v {
	case VariantStable:
		return StableRewardUnit
	case VariantYield:
		return YieldRewardUnit
	default:
		return NativeRewardUnit
	}
}

// Pool holds the aggregate counters of one deployment.
type Pool struct {
	ID              string    `json:"id"`
	Variant         Variant   `json:"variant"`
	Version         int       `json:"version"`
	Admin           string    `json:"admin"`
	TotalDeposited  uint64    `json:"total_deposited"`
	TotalDepositors uint32    `json:"total_depositors"`
	LastRewardTime  int64     `json:"last_reward_time"`
	RewardPool      uint64    `json:"reward_pool"`
	LastWinner      string    `json:"last_winner,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Clone returns a detached copy.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
