package reconciler

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/custos/internal/blockchain/blockchaintest"
	"github.com/core-coin/custos/internal/metrics"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
)

func newReconciler(ledger models.LedgerService) *Reconciler {
	return NewReconciler(ledger, metrics.New(prometheus.NewRegistry()), logger.NewNop())
}

func tx(hash, address, bundle string, value int64) models.LedgerTransaction {
	return models.LedgerTransaction{Hash: hash, Address: address, Bundle: bundle, Value: value}
}

func TestBalance(t *testing.T) {
	const addr = "ADDR"

	tests := []struct {
		name      string
		confirmed []models.LedgerTransaction
		pending   []models.LedgerTransaction
		want      int64
	}{
		{
			name: "no transactions",
			want: 0,
		},
		{
			name:      "confirmed only",
			confirmed: []models.LedgerTransaction{tx("H1", addr, "B1", 10), tx("H2", addr, "B2", 5)},
			want:      15,
		},
		{
			name:    "pending reattachments of one bundle count once",
			pending: []models.LedgerTransaction{tx("H1", addr, "B1", 10), tx("H2", addr, "B1", 10)},
			want:    10,
		},
		{
			name:      "pending reattachment of a confirmed bundle is dropped",
			confirmed: []models.LedgerTransaction{tx("H1", addr, "B1", 10)},
			pending:   []models.LedgerTransaction{tx("H2", addr, "B1", 10), tx("H3", addr, "B2", 3)},
			want:      13,
		},
		{
			name:      "zero value transactions are ignored",
			confirmed: []models.LedgerTransaction{tx("H1", addr, "B1", 0), tx("H2", addr, "B2", 7)},
			pending:   []models.LedgerTransaction{tx("H3", addr, "B3", 0)},
			want:      7,
		},
		{
			name:      "outgoing value is subtracted",
			confirmed: []models.LedgerTransaction{tx("H1", addr, "B1", 10), tx("H2", addr, "B2", -10)},
			want:      0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := blockchaintest.NewLedger()
			for _, c := range tt.confirmed {
				ledger.AddTransaction(c, true)
			}
			for _, p := range tt.pending {
				ledger.AddTransaction(p, false)
			}
			r := newReconciler(ledger)

			got, err := r.Balance(context.Background(), addr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := r.Balance(context.Background(), addr)
			require.NoError(t, err)
			assert.Equal(t, got, again, "reconciliation must be idempotent")
		})
	}
}

func TestBalance_InclusionFailure(t *testing.T) {
	ledger := blockchaintest.NewLedger()
	ledger.AddTransaction(tx("H1", "A", "B1", 10), false)
	ledger.IsConfirmedErr["H1"] = blockchaintest.ErrUnavailable

	_, err := newReconciler(ledger).Balance(context.Background(), "A")
	require.ErrorIs(t, err, models.ErrNetwork)
}

func TestReconcile_SkipsFailedAddresses(t *testing.T) {
	ledger := blockchaintest.NewLedger()
	ledger.AddTransaction(tx("H1", "A", "B1", 10), true)
	ledger.AddTransaction(tx("H2", "C", "B2", 4), false)
	ledger.FindErr["B"] = blockchaintest.ErrUnavailable

	r := newReconciler(ledger)
	in := []models.Address{
		{Address: "A", Index: 0, Balance: 99},
		{Address: "B", Index: 1, Balance: 50},
		{Address: "C", Index: 2},
	}
	out := r.Reconcile(context.Background(), in)

	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Address)
	assert.Equal(t, int64(10), out[0].Balance)
	assert.Equal(t, "C", out[1].Address)
	assert.Equal(t, int64(4), out[1].Balance)
	assert.Equal(t, int64(99), in[0].Balance, "input slice is not modified")
}

func TestCheckAddressUnused(t *testing.T) {
	ledger := blockchaintest.NewLedger()
	ledger.AddTransaction(tx("H1", "USED", "B1", 1), false)
	ledger.AddTransaction(tx("H2", "ATTACHED", "B2", 0), true)
	ledger.FindErr["DOWN"] = blockchaintest.ErrUnavailable
	r := newReconciler(ledger)
	ctx := context.Background()

	require.NoError(t, r.CheckAddressUnused(ctx, "FRESH"))
	require.NoError(t, r.CheckAddressUnused(ctx, "ATTACHED"))
	require.ErrorIs(t, r.CheckAddressUnused(ctx, "USED"), models.ErrAddressAlreadyUsed)
	require.ErrorIs(t, r.CheckAddressUnused(ctx, "DOWN"), models.ErrNetwork)
}
