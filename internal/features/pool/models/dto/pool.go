package dto

import "prize-pool-backend/internal/features/pool/models"

// AmountRequest is the body of deposit and withdraw calls. Amounts are in
// the pool token's base units.
type AmountRequest struct {
	Amount uint64 `json:"amount" binding:"required,gt=0"`
}

// DrawRequest optionally restricts a draw to the listed depositors, in the
// given order. An empty list draws among every depositor.
type DrawRequest struct {
	Candidates []string `json:"candidates"`
}

// ClaimRequest optionally names the winner to pay. Empty pays the last
// drawn winner.
type ClaimRequest struct {
	Winner string `json:"winner"`
}

type CreditRequest struct {
	Account string `json:"account" binding:"required"`
	Amount  uint64 `json:"amount" binding:"required,gt=0"`
}

type PoolResponse struct {
	Pool *models.Pool `json:"pool"`
}

type ReceiptResponse struct {
	Receipt *models.Receipt `json:"receipt"`
}

type DepositResponse struct {
	Deposit *models.DepositRecord `json:"deposit"`
}

type DepositsResponse struct {
	Deposits []*models.DepositRecord `json:"deposits"`
	Total    int                     `json:"total"`
}

type DrawResponse struct {
	Draw *models.Draw `json:"draw"`
}

type DrawsResponse struct {
	Draws []*models.Draw `json:"draws"`
	Total int            `json:"total"`
}

type ClaimResponse struct {
	Claim *models.Claim `json:"claim"`
}

type ClaimsResponse struct {
	Claims []*models.Claim `json:"claims"`
	Total  int             `json:"total"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}
