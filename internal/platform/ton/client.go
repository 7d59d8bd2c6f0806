// Package ton settles pool transfers on the TON blockchain through
// service-held wallets.
package ton

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/ton"
)

type Client struct {
	api ton.APIClientWrapped
}

// Connect opens a lite-server connection pool from a global config URL.
func Connect(ctx context.Context, configURL string) (*Client, error) {
	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
		return nil, fmt.Errorf("failed to connect to lite servers: %w", err)
	}
	return &Client{api: ton.NewAPIClient(pool).WithRetry()}, nil
}

func (c *Client) API() ton.APIClientWrapped {
	return c.api
}

// CurrentSlot reports the masterchain seqno.
func (c *Client) CurrentSlot(ctx context.Context) (uint64, error) {
	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get masterchain info: %w", err)
	}
	return uint64(block.SeqNo), nil
}

// WalletPublicKey reads the key a deployed wallet contract checks
// signatures against.
func (c *Client) WalletPublicKey(ctx context.Context, addr string) (ed25519.PublicKey, error) {
	a, err := address.ParseAddr(addr)
	if err != nil {
		a, err = address.ParseRawAddr(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDestination, addr)
	}

	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get masterchain info: %w", err)
	}

	res, err := c.api.RunGetMethod(ctx, block, a, "get_public_key")
	if err != nil {
		return nil, fmt.Errorf("get_public_key on %s: %w", addr, err)
	}
	key, err := res.Int(0)
	if err != nil {
		return nil, fmt.Errorf("unexpected get_public_key result: %w", err)
	}
	if key.Sign() < 0 || key.BitLen() > 256 {
		return nil, fmt.Errorf("public key of %s out of range", addr)
	}

	return ed25519.PublicKey(key.FillBytes(make([]byte, ed25519.PublicKeySize))), nil
}
