package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/custos/internal/models"
)

func addrs(balances ...int64) []models.Address {
	out := make([]models.Address, len(balances))
	for i, b := range balances {
		out[i] = models.Address{Address: string(rune('A' + i)), Index: uint64(i), Balance: b}
	}
	return out
}

func balancesOf(in []models.Address) []int64 {
	out := make([]int64, len(in))
	for i, a := range in {
		out[i] = a.Balance
	}
	return out
}

func TestSelectInputs(t *testing.T) {
	tests := []struct {
		name          string
		addresses     []models.Address
		amount        int64
		wantBalances  []int64
		wantTotal     int64
		wantRemainder int64
	}{
		{
			name:          "smallest first until covered",
			addresses:     addrs(40, 25, 10),
			amount:        50,
			wantBalances:  []int64{10, 25, 40},
			wantTotal:     75,
			wantRemainder: 25,
		},
		{
			name:          "exact match has no remainder",
			addresses:     addrs(40, 25, 10),
			amount:        35,
			wantBalances:  []int64{10, 25},
			wantTotal:     35,
			wantRemainder: 0,
		},
		{
			name:          "single smallest address is enough",
			addresses:     addrs(40, 25, 10),
			amount:        3,
			wantBalances:  []int64{10},
			wantTotal:     10,
			wantRemainder: 7,
		},
		{
			name:          "zero and negative balances are skipped",
			addresses:     addrs(0, -5, 8),
			amount:        8,
			wantBalances:  []int64{8},
			wantTotal:     8,
			wantRemainder: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := SelectInputs(tt.addresses, tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBalances, balancesOf(sel.Inputs))
			assert.Equal(t, tt.wantTotal, sel.Total)
			assert.Equal(t, tt.wantRemainder, sel.Remainder)
		})
	}
}

func TestSelectInputs_NeverPicksConsumed(t *testing.T) {
	in := addrs(5, 100, 7)
	in[1].UsedAsInput = true

	sel, err := SelectInputs(in, 12)
	require.NoError(t, err)
	for _, a := range sel.Inputs {
		assert.False(t, a.UsedAsInput)
	}

	_, err = SelectInputs(in, 13)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
}

func TestSelectInputs_NoDuplicates(t *testing.T) {
	in := addrs(5, 5)
	in = append(in, in[0])

	_, err := SelectInputs(in, 15)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	sel, err := SelectInputs(in, 10)
	require.NoError(t, err)
	assert.Len(t, sel.Inputs, 2)
	assert.NotEqual(t, sel.Inputs[0].Address, sel.Inputs[1].Address)
}

func TestSelectInputs_TieBreakIsDeterministic(t *testing.T) {
	in := []models.Address{
		{Address: "C", Index: 2, Balance: 5},
		{Address: "A", Index: 0, Balance: 5},
		{Address: "B", Index: 1, Balance: 5},
	}
	for i := 0; i < 10; i++ {
		sel, err := SelectInputs(in, 5)
		require.NoError(t, err)
		require.Len(t, sel.Inputs, 1)
		assert.Equal(t, "A", sel.Inputs[0].Address)
	}
}

func TestSelectInputs_Errors(t *testing.T) {
	_, err := SelectInputs(addrs(40, 25, 10), 76)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	_, err = SelectInputs(nil, 1)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	_, err = SelectInputs(addrs(10), 0)
	require.ErrorIs(t, err, models.ErrInvalidAmount)
}
