package models

import "time"

// Challenge is the one-time payload a wallet must sign to be linked.
type Challenge struct {
	Identity  string    `json:"identity"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProofDomain is the dApp domain the wallet signed for.
type ProofDomain struct {
	LengthBytes uint32 `json:"lengthBytes"`
	Value       string `json:"value" binding:"required"`
}

// Proof is the ton_proof item returned by TON Connect.
type Proof struct {
	Timestamp int64       `json:"timestamp" binding:"required"`
	Domain    ProofDomain `json:"domain" binding:"required"`
	Payload   string      `json:"payload" binding:"required"`
	// Signature is base64 encoded.
	Signature string `json:"signature" binding:"required"`
}

// LinkRequest represents a request to link a TON wallet
// @Description TON Connect account and ton_proof
type LinkRequest struct {
	Address string `json:"address" binding:"required" example:"0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"`
	Network string `json:"network" example:"-239"`
	// PublicKey is hex encoded. It is only trusted when the chain cannot be queried.
	PublicKey string `json:"public_key" example:"b3b5bd0c0a1f5a9b3c7d1e2f..."`
	Proof     Proof  `json:"proof" binding:"required"`
}

// WalletLink binds an identity to the TON address payouts are sent to.
type WalletLink struct {
	Identity   string    `json:"identity"`
	Address    string    `json:"address"`
	Network    string    `json:"network,omitempty"`
	VerifiedAt time.Time `json:"verified_at"`
}
