// Package asset implements the per-variant value movement the pool
// ledger delegates to.
package asset

import (
	"context"
	"fmt"

	"prize-pool-backend/internal/features/pool/service"
)

// Transferer moves amount base units between two accounts.
type Transferer interface {
	Transfer(ctx context.Context, from, to string, amount uint64) error
}

// Accounts names the service-held accounts value moves through.
type Accounts struct {
	// Vault holds pooled deposits.
	Vault string
	// Treasury funds reward payouts. Empty means the admin's own account.
	Treasury string
}

// Native moves the chain's base asset. Inbound legs debit participant
// balances; outbound legs are signed by the service-held vault or treasury.
type Native struct {
	inbound  Transferer
	outbound Transferer
	accounts Accounts
}

var _ service.AssetMover = (*Native)(nil)

func NewNative(inbound, outbound Transferer, accounts Accounts) *Native {
	return &Native{inbound: inbound, outbound: outbound, accounts: accounts}
}

func (n *Native) Collect(ctx context.Context, participant string, amount uint64) error {
	if err := n.inbound.Transfer(ctx, participant, n.accounts.Vault, amount); err != nil {
		return fmt.Errorf("collect from %s: %w", participant, err)
	}
	return nil
}

func (n *Native) Release(ctx context.Context, participant string, amount uint64) error {
	if err := n.outbound.Transfer(ctx, n.accounts.Vault, participant, amount); err != nil {
		return fmt.Errorf("release to %s: %w", participant, err)
	}
	return nil
}

// Refund sends a collected amount back over the inbound leg it came in on.
func (n *Native) Refund(ctx context.Context, participant string, amount uint64) error {
	if err := n.inbound.Transfer(ctx, n.accounts.Vault, participant, amount); err != nil {
		return fmt.Errorf("refund to %s: %w", participant, err)
	}
	return nil
}

func (n *Native) Payout(ctx context.Context, admin, winner string, amount uint64) error {
	from := n.accounts.Treasury
	if from == "" {
		from = admin
	}
	if err := n.outbound.Transfer(ctx, from, winner, amount); err != nil {
		return fmt.Errorf("payout to %s: %w", winner, err)
	}
	return nil
}
