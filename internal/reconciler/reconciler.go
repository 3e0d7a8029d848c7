package reconciler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/core-coin/custos/internal/metrics"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
)

// DefaultConcurrency bounds the number of addresses looked up at once.
const DefaultConcurrency = 8

// Reconciler computes address balances from the transactions the node knows about.
type Reconciler struct {
	logger      *logger.Logger
	ledger      models.LedgerService
	metrics     *metrics.Metrics
	concurrency int
}

func NewReconciler(ledger models.LedgerService, metrics *metrics.Metrics, logger *logger.Logger) *Reconciler {
	return &Reconciler{
		logger:      logger,
		ledger:      ledger,
		metrics:     metrics,
		concurrency: DefaultConcurrency,
	}
}

// Balance sums the value of the confirmed transactions of address plus the
// pending ones whose bundle is neither confirmed nor already counted.
// Zero-value transactions never contribute.
func (r *Reconciler) Balance(ctx context.Context, address string) (int64, error) {
	txs, err := r.ledger.FindTransactions(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to find transactions of %s: %w: %w", address, models.ErrNetwork, err)
	}

	var confirmed, pending []models.LedgerTransaction
	for _, tx := range txs {
		if tx.Value == 0 {
			continue
		}
		ok, err := r.ledger.IsConfirmed(ctx, tx.Hash)
		if err != nil {
			return 0, fmt.Errorf("failed to get inclusion state of %s: %w: %w", tx.Hash, models.ErrNetwork, err)
		}
		if ok {
			confirmed = append(confirmed, tx)
		} else {
			pending = append(pending, tx)
		}
	}

	seen := make(map[string]struct{}, len(confirmed)+len(pending))
	var balance int64
	for _, tx := range confirmed {
		seen[tx.Bundle] = struct{}{}
		balance += tx.Value
	}
	for _, tx := range pending {
		if _, ok := seen[tx.Bundle]; ok {
			continue
		}
		seen[tx.Bundle] = struct{}{}
		balance += tx.Value
	}
	return balance, nil
}

// Reconcile returns the addresses with their balance recomputed. An address
// whose lookup fails is logged and left out of the result.
func (r *Reconciler) Reconcile(ctx context.Context, addresses []models.Address) []models.Address {
	results := make([]*models.Address, len(addresses))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range addresses {
		g.Go(func() error {
			balance, err := r.Balance(ctx, addresses[i].Address)
			if err != nil {
				r.logger.Warnw("skipping address in reconciliation",
					"address", addresses[i].Address, "error", err)
				r.metrics.ReconcileFailed()
				return nil
			}
			updated := addresses[i]
			updated.Balance = balance
			results[i] = &updated
			return nil
		})
	}
	_ = g.Wait()

	reconciled := make([]models.Address, 0, len(addresses))
	for _, a := range results {
		if a != nil {
			reconciled = append(reconciled, *a)
		}
	}
	return reconciled
}

// CheckAddressUnused fails with ErrAddressAlreadyUsed when any transaction
// carrying value references address.
func (r *Reconciler) CheckAddressUnused(ctx context.Context, address string) error {
	txs, err := r.ledger.FindTransactions(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to find transactions of %s: %w: %w", address, models.ErrNetwork, err)
	}
	for _, tx := range txs {
		if tx.Value != 0 {
			return fmt.Errorf("address %s: %w", address, models.ErrAddressAlreadyUsed)
		}
	}
	return nil
}
