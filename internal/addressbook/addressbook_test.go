package addressbook

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/custos/internal/blockchain/blockchaintest"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/internal/repository/repotest"
	"github.com/core-coin/custos/pkg/logger"
)

var seed = strings.Repeat("SEED9", 16) + "S"

func setup(t *testing.T) (*Book, *blockchaintest.Ledger, models.Repository) {
	t.Helper()
	ledger := blockchaintest.NewLedger()
	repo := repotest.New(t)
	require.NoError(t, repo.CreateWallet(context.Background(), &models.Wallet{
		TelegramID: 1, Seed: "x", KeyNum: 1, HashedKey: "h", SaltKey: "s",
	}))
	return NewBook(ledger, logger.NewNop()), ledger, repo
}

func TestDeriveAddress(t *testing.T) {
	book, ledger, _ := setup(t)
	ctx := context.Background()

	index := uint64(3)
	addr, err := book.DeriveAddress(ctx, seed, &index)
	require.NoError(t, err)
	assert.Equal(t, blockchaintest.AddressFor(seed, 3), addr)

	// without an index the first address without transactions is returned
	ledger.AddTransaction(models.LedgerTransaction{Hash: "H", Address: blockchaintest.AddressFor(seed, 0)}, true)
	addr, err = book.DeriveAddress(ctx, seed, nil)
	require.NoError(t, err)
	assert.Equal(t, blockchaintest.AddressFor(seed, 1), addr)
}

func TestDeriveAddress_InvalidSeed(t *testing.T) {
	book, ledger, _ := setup(t)

	_, err := book.DeriveAddress(context.Background(), "bad", nil)
	require.ErrorIs(t, err, models.ErrInvalidSeed)
	assert.Zero(t, ledger.CallCount("GetNewAddress"), "must fail before calling the node")
}

func TestDeriveAddress_NetworkFailure(t *testing.T) {
	book, ledger, _ := setup(t)
	ledger.DeriveErr = blockchaintest.ErrUnavailable

	_, err := book.DeriveAddress(context.Background(), seed, nil)
	require.ErrorIs(t, err, models.ErrNetwork)
	require.ErrorIs(t, err, blockchaintest.ErrUnavailable)
}

func TestRecordAndConsume(t *testing.T) {
	book, _, repo := setup(t)
	ctx := context.Background()

	a0 := blockchaintest.AddressFor(seed, 0)
	a1 := blockchaintest.AddressFor(seed, 1)
	require.NoError(t, book.Record(ctx, repo, &models.Address{Address: a0 + "CHECKSUM9", TelegramSenderID: 1, Index: 0, Balance: 10, UsedAsInput: true}))
	require.NoError(t, book.Record(ctx, repo, &models.Address{Address: a1, TelegramSenderID: 1, Index: 1, Balance: 5}))

	spendable, err := book.ListSpendable(ctx, repo, 1)
	require.NoError(t, err)
	require.Len(t, spendable, 2)
	assert.Equal(t, a0, spendable[0].Address, "checksum is stripped")
	assert.False(t, spendable[0].UsedAsInput, "new rows start unconsumed")
	assert.Equal(t, models.DefaultSecurity, spendable[0].Security)

	require.NoError(t, book.MarkConsumed(ctx, repo, a0))
	require.ErrorIs(t, book.MarkConsumed(ctx, repo, a0), models.ErrAddressAlreadyUsedAsInput)

	spendable, err = book.ListSpendable(ctx, repo, 1)
	require.NoError(t, err)
	require.Len(t, spendable, 1)
	assert.Equal(t, a1, spendable[0].Address)
}

func TestRecord_InvalidAddress(t *testing.T) {
	book, _, repo := setup(t)

	err := book.Record(context.Background(), repo, &models.Address{Address: "nope", TelegramSenderID: 1})
	require.ErrorIs(t, err, models.ErrInvalidAddress)
}
