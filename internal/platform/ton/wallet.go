package ton

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton/wallet"

	"prize-pool-backend/internal/common/logger"
)

const transferComment = "prize pool"

var (
	ErrNotCustodian       = errors.New("account is not a service-held wallet")
	ErrInvalidDestination = errors.New("destination is not a valid TON address")
)

// AddressBook resolves a pool identity to the wallet address it linked.
type AddressBook interface {
	Lookup(ctx context.Context, identity string) (string, bool, error)
}

// Wallets maps service account names to wallets the service can sign for.
type Wallets struct {
	byAccount map[string]*wallet.Wallet
	book      AddressBook
}

// OpenWallets derives a V4R2 wallet per account from its mnemonic.
func OpenWallets(c *Client, seeds map[string]string) (*Wallets, error) {
	w := &Wallets{byAccount: make(map[string]*wallet.Wallet, len(seeds))}
	for account, seed := range seeds {
		words := strings.Fields(seed)
		wl, err := wallet.FromSeed(c.api, words, wallet.V4R2)
		if err != nil {
			return nil, fmt.Errorf("failed to open wallet %s: %w", account, err)
		}
		w.byAccount[account] = wl
		logger.Info().Str("account", account).Str("address", wl.WalletAddress().String()).Msg("Wallet opened")
	}
	return w, nil
}

// UseAddressBook lets transfers to identities that are not addresses
// reach the wallet the identity linked.
func (w *Wallets) UseAddressBook(book AddressBook) {
	w.book = book
}

func (w *Wallets) get(account string) (*wallet.Wallet, error) {
	wl, ok := w.byAccount[account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCustodian, account)
	}
	return wl, nil
}

// resolve maps an account to an address: held wallets by name, then linked
// wallets, anything else must be a raw or user-friendly TON address.
func (w *Wallets) resolve(ctx context.Context, account string) (*address.Address, error) {
	if wl, ok := w.byAccount[account]; ok {
		return wl.WalletAddress(), nil
	}
	return lookup(ctx, w.book, account)
}

func lookup(ctx context.Context, book AddressBook, identity string) (*address.Address, error) {
	if book != nil {
		linked, ok, err := book.Lookup(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("failed to look up wallet of %s: %w", identity, err)
		}
		if ok {
			return ParseDestination(linked)
		}
	}
	return ParseDestination(identity)
}

func ParseDestination(s string) (*address.Address, error) {
	addr, err := address.ParseAddr(s)
	if err != nil {
		addr, err = address.ParseRawAddr(s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDestination, s)
	}
	return addr, nil
}

// NanoCoins converts base units to a TON amount.
func NanoCoins(amount uint64) tlb.Coins {
	return tlb.FromNanoTON(new(big.Int).SetUint64(amount))
}

// NativeTransferer sends TON from a held wallet and waits for confirmation.
type NativeTransferer struct {
	wallets *Wallets
}

func NewNativeTransferer(wallets *Wallets) *NativeTransferer {
	return &NativeTransferer{wallets: wallets}
}

func (t *NativeTransferer) Transfer(ctx context.Context, from, to string, amount uint64) error {
	src, err := t.wallets.get(from)
	if err != nil {
		return err
	}
	dst, err := t.wallets.resolve(ctx, to)
	if err != nil {
		return err
	}

	if err := src.Transfer(ctx, dst, NanoCoins(amount), transferComment, true); err != nil {
		return fmt.Errorf("ton transfer %s -> %s: %w", from, dst.String(), err)
	}

	logger.Info().
		Str("from", from).
		Str("to", dst.String()).
		Uint64("amount", amount).
		Msg("TON transfer confirmed")
	return nil
}
