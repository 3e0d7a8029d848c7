package models

import "context"

type Repository interface {
	// WithTransaction runs fn inside a database transaction. The transaction
	// commits when fn returns nil and rolls back otherwise. Calling it on a
	// transactional repository opens a savepoint.
	WithTransaction(ctx context.Context, fn func(tx Repository) error) error

	GetUserStatus(ctx context.Context, telegramID int64) (UserStatus, error)
	SetUserStatus(ctx context.Context, telegramID int64, status UserStatus) error

	CreateWallet(ctx context.Context, wallet *Wallet) error
	GetWallet(ctx context.Context, telegramID int64) (*Wallet, error)
	// LockWallet reads the wallet row and locks it until the transaction ends.
	LockWallet(ctx context.Context, telegramID int64) (*Wallet, error)
	UpdateWallet(ctx context.Context, wallet *Wallet) error

	AddAddress(ctx context.Context, address *Address) error
	GetAddress(ctx context.Context, address string) (*Address, error)
	// ListSpendableAddresses returns the owner's addresses not used as input, by index.
	ListSpendableAddresses(ctx context.Context, telegramID int64) ([]Address, error)
	UpdateAddressBalance(ctx context.Context, address string, balance int64) error
	MarkAddressConsumed(ctx context.Context, address string) error

	AddTxHistory(ctx context.Context, entry *TxHistory) error
	ListTxHistory(ctx context.Context, telegramID int64) ([]TxHistory, error)

	Close() error
}
