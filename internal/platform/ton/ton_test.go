package ton

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foundationAddr = "EQCD39VS5jcptHL8vMjEXrzGaRcCVYto7HUn4bpAOg8xqB2N"

func TestParseDestination(t *testing.T) {
	addr, err := ParseDestination(foundationAddr)
	require.NoError(t, err)
	assert.Equal(t, foundationAddr, addr.String())

	_, err = ParseDestination("12345")
	assert.ErrorIs(t, err, ErrInvalidDestination)
}

func TestNanoCoins(t *testing.T) {
	c := NanoCoins(1_500_000_000)
	assert.Equal(t, uint64(1_500_000_000), c.Nano().Uint64())
}

func TestTransferFromUnknownWallet(t *testing.T) {
	w := &Wallets{byAccount: nil}

	err := NewNativeTransferer(w).Transfer(context.Background(), "vault", foundationAddr, 1)
	assert.ErrorIs(t, err, ErrNotCustodian)

	err = NewJettonTransferer(w, nil).Transfer(context.Background(), "vault", foundationAddr, 1)
	assert.ErrorIs(t, err, ErrNotCustodian)
}

type staticBook map[string]string

func (b staticBook) Lookup(_ context.Context, identity string) (string, bool, error) {
	addr, ok := b[identity]
	return addr, ok, nil
}

func TestResolveThroughAddressBook(t *testing.T) {
	w := &Wallets{}
	w.UseAddressBook(staticBook{"4242": foundationAddr})
	ctx := context.Background()

	addr, err := w.resolve(ctx, "4242")
	require.NoError(t, err)
	assert.Equal(t, foundationAddr, addr.String())

	addr, err = w.resolve(ctx, foundationAddr)
	require.NoError(t, err)
	assert.Equal(t, foundationAddr, addr.String())

	_, err = w.resolve(ctx, "7")
	assert.ErrorIs(t, err, ErrInvalidDestination)
}
