package models

// DepositRecord is a participant's balance in the pool. Records survive a
// full withdrawal with Amount zero and are reused by the next deposit.
type DepositRecord struct {
	Owner       string `json:"owner"`
	Amount      uint64 `json:"amount"`
	DepositTime int64  `json:"deposit_time"`
}

func (r *DepositRecord) Clone() *DepositRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Receipt reports a balance change made by deposit or withdraw.
type Receipt struct {
	Participant string         `json:"participant"`
	Amount      uint64         `json:"amount"`
	Deposit     *DepositRecord `json:"deposit"`
	Pool        *Pool          `json:"pool"`
}
