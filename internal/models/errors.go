package models

import "errors"

var (
	// ErrInvalidKey means the supplied key does not match the stored verification hash.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidSeed means the decrypted seed is not a valid seed.
	ErrInvalidSeed = errors.New("invalid seed")
	// ErrInvalidAddress means a recipient or remainder address is malformed.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrAddressAlreadyUsed means the recipient address already carries value transactions.
	ErrAddressAlreadyUsed = errors.New("address already used")
	// ErrAddressAlreadyUsedAsInput means the address was already spent from.
	ErrAddressAlreadyUsedAsInput = errors.New("address already used as input")
	// ErrInsufficientFunds means input selection ran out of candidates.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidTag means the transaction tag is not valid trytes or too long.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrInvalidMessage means the transaction message is too long or not encodable.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrInvalidAmount means the transfer value is not a positive integer.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrDatabase wraps persistence layer failures.
	ErrDatabase = errors.New("database failure")
	// ErrNetwork wraps ledger node and price ticker failures.
	ErrNetwork = errors.New("network failure")
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the user is not allowed to use a private bot.
	ErrUnauthorized = errors.New("unauthorized")
)
