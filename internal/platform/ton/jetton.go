package ton

import (
	"context"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton/jetton"
	"github.com/xssnick/tonutils-go/ton/wallet"

	"prize-pool-backend/internal/common/logger"
)

// jettonTransferFee is attached to the owner's jetton wallet to pay for
// the internal transfer chain.
var jettonTransferFee = tlb.MustFromTON("0.05")

// Jetton is a token whose wallets derive from one master contract.
type Jetton struct {
	master   *jetton.Client
	decimals int
	book     AddressBook
}

func NewJetton(c *Client, master string, decimals int) (*Jetton, error) {
	addr, err := address.ParseAddr(master)
	if err != nil {
		return nil, fmt.Errorf("invalid jetton master %q: %w", master, err)
	}
	return &Jetton{master: jetton.NewJettonMasterClient(c.api, addr), decimals: decimals}, nil
}

func (j *Jetton) UseAddressBook(book AddressBook) {
	j.book = book
}

// Verify checks that owner has a live jetton wallet of this master. The
// wallet address derives from (master, owner) so owner and token type
// match by construction.
func (j *Jetton) Verify(ctx context.Context, owner string) error {
	addr, err := lookup(ctx, j.book, owner)
	if err != nil {
		return err
	}
	jw, err := j.master.GetJettonWallet(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to derive jetton wallet of %s: %w", owner, err)
	}
	if _, err := jw.GetBalance(ctx); err != nil {
		return fmt.Errorf("jetton wallet %s is not active: %w", jw.Address().String(), err)
	}
	return nil
}

// JettonTransferer sends jettons from a held wallet.
type JettonTransferer struct {
	wallets *Wallets
	token   *Jetton
}

func NewJettonTransferer(wallets *Wallets, token *Jetton) *JettonTransferer {
	return &JettonTransferer{wallets: wallets, token: token}
}

func (t *JettonTransferer) Transfer(ctx context.Context, from, to string, amount uint64) error {
	src, err := t.wallets.get(from)
	if err != nil {
		return err
	}
	dst, err := t.wallets.resolve(ctx, to)
	if err != nil {
		return err
	}

	jw, err := t.token.master.GetJettonWallet(ctx, src.WalletAddress())
	if err != nil {
		return fmt.Errorf("failed to derive jetton wallet of %s: %w", from, err)
	}

	coins, err := tlb.FromNano(new(big.Int).SetUint64(amount), t.token.decimals)
	if err != nil {
		return fmt.Errorf("invalid jetton amount %d: %w", amount, err)
	}

	payload, err := jw.BuildTransferPayloadV2(dst, src.WalletAddress(), coins, tlb.ZeroCoins, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to build jetton transfer: %w", err)
	}

	msg := wallet.SimpleMessage(jw.Address(), jettonTransferFee, payload)
	if err := src.Send(ctx, msg, true); err != nil {
		return fmt.Errorf("jetton transfer %s -> %s: %w", from, dst.String(), err)
	}

	logger.Info().
		Str("from", from).
		Str("to", dst.String()).
		Uint64("amount", amount).
		Msg("Jetton transfer confirmed")
	return nil
}
