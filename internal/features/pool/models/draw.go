package models

import "time"

// Draw records one successful winner selection.
type Draw struct {
	ID              string    `json:"id"`
	PoolID          string    `json:"pool_id"`
	Winner          string    `json:"winner"`
	WinnerIndex     int       `json:"winner_index"`
	WinnerWeight    uint64    `json:"winner_weight"`
	Candidates      int       `json:"candidates"`
	Seed            int64     `json:"seed"`
	Target          uint64    `json:"target"`
	TotalWeight     uint64    `json:"total_weight"`
	UnixTime        int64     `json:"unix_time"`
	Slot            uint64    `json:"slot"`
	Epoch           uint64    `json:"epoch"`
	TotalDeposited  uint64    `json:"total_deposited"`
	TotalDepositors uint32    `json:"total_depositors"`
	Reward          uint64    `json:"reward"`
	RewardPool      uint64    `json:"reward_pool"`
	SelectedAt      time.Time `json:"selected_at"`
}

// Claim records one paid-out reward.
type Claim struct {
	ID         string    `json:"id"`
	PoolID     string    `json:"pool_id"`
	Winner     string    `json:"winner"`
	Authorizer string    `json:"authorizer"`
	Amount     uint64    `json:"amount"`
	ClaimedAt  time.Time `json:"claimed_at"`
}
