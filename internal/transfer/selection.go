package transfer

import (
	"fmt"
	"sort"

	"github.com/core-coin/custos/internal/models"
)

// Selection holds the result of input selection.
type Selection struct {
	Inputs    []models.Address // Selected addresses, in selection order.
	Total     int64            // Sum of selected balances.
	Remainder int64            // Remainder = Total - amount.
}

// SelectInputs picks inputs for amount, smallest positive balance first, until
// the accumulated balance covers it. Consumed addresses are never picked.
// Ties are broken by derivation index, then by address.
func SelectInputs(addresses []models.Address, amount int64) (*Selection, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidAmount, amount)
	}

	candidates := make([]models.Address, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		if a.UsedAsInput || a.Balance <= 0 {
			continue
		}
		if _, dup := seen[a.Address]; dup {
			continue
		}
		seen[a.Address] = struct{}{}
		candidates = append(candidates, a)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Balance != candidates[j].Balance {
			return candidates[i].Balance < candidates[j].Balance
		}
		if candidates[i].Index != candidates[j].Index {
			return candidates[i].Index < candidates[j].Index
		}
		return candidates[i].Address < candidates[j].Address
	})

	var (
		selected []models.Address
		total    int64
	)
	for _, c := range candidates {
		selected = append(selected, c)
		total += c.Balance
		if total >= amount {
			return &Selection{
				Inputs:    selected,
				Total:     total,
				Remainder: total - amount,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: have %d, need %d", models.ErrInsufficientFunds, total, amount)
}
