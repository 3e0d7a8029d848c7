package addressbook

import (
	"context"
	"fmt"

	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
	"github.com/core-coin/custos/pkg/validation"
)

// Book keeps track of the addresses derived for every wallet.
// Reads and writes go through the repository handed in by the caller so that
// they join the caller's transaction.
type Book struct {
	logger *logger.Logger
	ledger models.LedgerService
}

func NewBook(ledger models.LedgerService, logger *logger.Logger) *Book {
	return &Book{ledger: ledger, logger: logger}
}

// DeriveAddress derives the address of seed at index, or the next unused
// address when index is nil. The result has its checksum stripped.
func (b *Book) DeriveAddress(ctx context.Context, seed string, index *uint64) (string, error) {
	if !validation.IsSeed(seed) {
		return "", models.ErrInvalidSeed
	}
	address, err := b.ledger.GetNewAddress(ctx, seed, index)
	if err != nil {
		return "", fmt.Errorf("failed to derive address: %w: %w", models.ErrNetwork, err)
	}
	address = validation.NormalizeAddress(address)
	if !validation.IsSeed(address) {
		return "", fmt.Errorf("node returned %q: %w", address, models.ErrInvalidAddress)
	}
	return address, nil
}

// Record persists a newly derived address. The row always starts unconsumed.
func (b *Book) Record(ctx context.Context, repo models.Repository, address *models.Address) error {
	if err := validation.ValidateAddress(address.Address); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidAddress, err)
	}
	address.Address = validation.NormalizeAddress(address.Address)
	address.UsedAsInput = false
	if address.Security == 0 {
		address.Security = models.DefaultSecurity
	}
	if err := repo.AddAddress(ctx, address); err != nil {
		return err
	}
	b.logger.Debugw("address recorded", "owner", address.TelegramSenderID, "index", address.Index)
	return nil
}

// MarkConsumed flags the address as spent and zeroes its balance. An address
// that is already consumed is rejected.
func (b *Book) MarkConsumed(ctx context.Context, repo models.Repository, address string) error {
	row, err := repo.GetAddress(ctx, address)
	if err != nil {
		return err
	}
	if row.UsedAsInput {
		return fmt.Errorf("address %s: %w", address, models.ErrAddressAlreadyUsedAsInput)
	}
	return repo.MarkAddressConsumed(ctx, address)
}

// ListSpendable returns the owner's unconsumed addresses ordered by index.
func (b *Book) ListSpendable(ctx context.Context, repo models.Repository, owner int64) ([]models.Address, error) {
	addresses, err := repo.ListSpendableAddresses(ctx, owner)
	if err != nil {
		return nil, err
	}
	// never hand out a consumed address, whatever the store returned
	spendable := addresses[:0]
	for _, a := range addresses {
		if !a.UsedAsInput {
			spendable = append(spendable, a)
		}
	}
	return spendable, nil
}
