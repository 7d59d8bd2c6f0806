package asset

import (
	"context"
	"fmt"

	"prize-pool-backend/internal/common/logger"
)

// DefaultSink is the custody account value is parked in once it has left
// the service on chain.
const DefaultSink = "offramp"

// OffRamp settles an outbound leg on chain and retires the same amount from
// the sender's custody balance, so the vault and treasury balances in
// custody track what the service-held wallets can still send.
type OffRamp struct {
	ledger Transferer
	chain  Transferer
	sink   string
}

func NewOffRamp(ledger, chain Transferer, sink string) *OffRamp {
	if sink == "" {
		sink = DefaultSink
	}
	return &OffRamp{ledger: ledger, chain: chain, sink: sink}
}

func (o *OffRamp) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if err := o.ledger.Transfer(ctx, from, o.sink, amount); err != nil {
		return fmt.Errorf("retire %d from %s: %w", amount, from, err)
	}

	if err := o.chain.Transfer(ctx, from, to, amount); err != nil {
		if rbErr := o.ledger.Transfer(ctx, o.sink, from, amount); rbErr != nil {
			logger.Error().Err(rbErr).Str("account", from).Uint64("amount", amount).
				Msg("Failed to restore custody balance after on-chain transfer failure")
		}
		return err
	}
	return nil
}
