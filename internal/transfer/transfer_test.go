package transfer

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/custos/internal/addressbook"
	"github.com/core-coin/custos/internal/blockchain/blockchaintest"
	"github.com/core-coin/custos/internal/metrics"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/internal/reconciler"
	"github.com/core-coin/custos/internal/repository/repotest"
	"github.com/core-coin/custos/pkg/logger"
)

const owner = int64(42)

type fixture struct {
	ledger  *blockchaintest.Ledger
	repo    models.Repository
	service *Service
	wallet  *models.Wallet
}

// newFixture funds addresses 0..n-1 of testSeed with the given confirmed balances.
func newFixture(t *testing.T, balances ...int64) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()

	ledger := blockchaintest.NewLedger()
	repo := repotest.New(t)
	book := addressbook.NewBook(ledger, log)
	rec := reconciler.NewReconciler(ledger, metrics.New(prometheus.NewRegistry()), log)
	service := NewService(book, rec, NewBuilder(ledger, 9, 14, log), log)

	wallet := &models.Wallet{
		TelegramID: owner,
		Seed:       "encrypted",
		NextIndex:  uint64(len(balances)),
		KeyNum:     1,
		HashedKey:  "h",
		SaltKey:    "s",
	}
	require.NoError(t, repo.CreateWallet(ctx, wallet))

	for i, b := range balances {
		addr := blockchaintest.AddressFor(testSeed, uint64(i))
		require.NoError(t, repo.AddAddress(ctx, &models.Address{
			Address: addr, TelegramSenderID: owner, Index: uint64(i), Security: 2,
		}))
		ledger.AddTransaction(models.LedgerTransaction{
			Hash: blockchaintest.AddressFor("HASH", uint64(i)), Address: addr, Bundle: blockchaintest.AddressFor("BUNDLE", uint64(i)), Value: b,
		}, true)
	}
	return &fixture{ledger: ledger, repo: repo, service: service, wallet: wallet}
}

func (f *fixture) transfer(t *testing.T, amount int64) (*Result, error) {
	t.Helper()
	var res *Result
	err := f.repo.WithTransaction(context.Background(), func(tx models.Repository) error {
		var err error
		res, err = f.service.Transfer(context.Background(), tx, f.wallet, testSeed, Order{
			Recipient: testRecipient,
			Amount:    amount,
			Tag:       "IOTAWALLETBOT99999999999999",
			Message:   "Transaction sent from IOTAWalletBot.",
		})
		if err != nil {
			return err
		}
		return tx.UpdateWallet(context.Background(), f.wallet)
	})
	return res, err
}

func TestTransfer_SmallestFirstWithRemainder(t *testing.T) {
	f := newFixture(t, 40, 25, 10)
	ctx := context.Background()

	res, err := f.transfer(t, 50)
	require.NoError(t, err)

	assert.Equal(t, []int64{10, 25, 40}, balancesOf(res.Selection.Inputs))
	assert.Equal(t, int64(75), res.Selection.Total)
	assert.Equal(t, int64(25), res.Selection.Remainder)
	assert.Equal(t, blockchaintest.AddressFor(testSeed, 3), res.RemainderAddress)

	for i := uint64(0); i < 3; i++ {
		a, err := f.repo.GetAddress(ctx, blockchaintest.AddressFor(testSeed, i))
		require.NoError(t, err)
		assert.True(t, a.UsedAsInput)
		assert.Zero(t, a.Balance)
	}

	spendable, err := f.repo.ListSpendableAddresses(ctx, owner)
	require.NoError(t, err)
	require.Len(t, spendable, 1)
	assert.Equal(t, res.RemainderAddress, spendable[0].Address)
	assert.Equal(t, int64(25), spendable[0].Balance)
	assert.Equal(t, uint64(3), spendable[0].Index)

	w, err := f.repo.GetWallet(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), w.NextIndex)

	history, err := f.repo.ListTxHistory(ctx, owner)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.Broadcast.Bundle, history[0].Bundle)

	require.Len(t, f.ledger.Prepared, 1)
	assert.Equal(t, res.RemainderAddress, f.ledger.Prepared[0].RemainderAddress)
}

func TestTransfer_ExactAmountHasNoRemainder(t *testing.T) {
	f := newFixture(t, 40, 25, 10)

	res, err := f.transfer(t, 35)
	require.NoError(t, err)
	assert.Empty(t, res.RemainderAddress)
	assert.Zero(t, f.ledger.CallCount("GetNewAddress"))

	w, err := f.repo.GetWallet(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), w.NextIndex)
}

func TestTransfer_RecipientAlreadyUsed(t *testing.T) {
	f := newFixture(t, 40, 25, 10)
	f.ledger.AddTransaction(models.LedgerTransaction{Hash: "H", Address: testRecipient, Bundle: "B", Value: 1}, false)

	_, err := f.transfer(t, 50)
	require.ErrorIs(t, err, models.ErrAddressAlreadyUsed)

	spendable, err := f.repo.ListSpendableAddresses(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, spendable, 3)
	for _, a := range spendable {
		assert.Zero(t, a.Balance, "no balance written before the reuse check")
	}
	assert.Zero(t, f.ledger.CallCount("PrepareTransfer"))
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	f := newFixture(t, 40, 25, 10)

	_, err := f.transfer(t, 76)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Zero(t, f.ledger.CallCount("PrepareTransfer"))
}

func TestTransfer_BroadcastFailureRollsBack(t *testing.T) {
	f := newFixture(t, 40, 25, 10)
	f.ledger.SendErr = blockchaintest.ErrUnavailable
	ctx := context.Background()

	_, err := f.transfer(t, 50)
	require.ErrorIs(t, err, models.ErrNetwork)

	spendable, err := f.repo.ListSpendableAddresses(ctx, owner)
	require.NoError(t, err)
	require.Len(t, spendable, 3, "consumed marks and remainder must not survive")

	w, err := f.repo.GetWallet(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), w.NextIndex)

	history, err := f.repo.ListTxHistory(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTransfer_InvalidInputFailsFast(t *testing.T) {
	f := newFixture(t, 40)

	err := f.repo.WithTransaction(context.Background(), func(tx models.Repository) error {
		_, err := f.service.Transfer(context.Background(), tx, f.wallet, testSeed, Order{Recipient: "bad", Amount: 1})
		return err
	})
	require.ErrorIs(t, err, models.ErrInvalidAddress)

	err = f.repo.WithTransaction(context.Background(), func(tx models.Repository) error {
		_, err := f.service.Transfer(context.Background(), tx, f.wallet, testSeed, Order{Recipient: testRecipient, Amount: 0})
		return err
	})
	require.ErrorIs(t, err, models.ErrInvalidAmount)
	assert.Zero(t, f.ledger.CallCount("FindTransactions"))
}
