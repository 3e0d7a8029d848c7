package models

import "context"

// LedgerTransaction is a transaction as returned by an address lookup.
type LedgerTransaction struct {
	Hash                string
	Address             string
	Value               int64
	Bundle              string
	AttachmentTimestamp int64
}

// Input is an address used to fund a transfer.
type Input struct {
	Address  string
	Balance  int64
	KeyIndex uint64
	Security int
}

// TransferSpec is everything the ledger client needs to prepare and sign a bundle.
type TransferSpec struct {
	Seed             string
	Recipient        string
	Value            int64
	Message          string // tryte encoded
	Tag              string
	RemainderAddress string // empty when the inputs match the value exactly
	Inputs           []Input
	Security         int
}

// BroadcastResult describes an attached and broadcast bundle.
type BroadcastResult struct {
	Bundle              string
	TxHash              string
	AttachmentTimestamp int64
}

// NodeInfo is the status reported by the ledger node.
type NodeInfo struct {
	Node                               string `json:"node"`
	AppName                            string `json:"app_name"`
	AppVersion                         string `json:"app_version"`
	LatestMilestoneIndex               int64  `json:"latest_milestone_index"`
	LatestSolidSubtangleMilestoneIndex int64  `json:"latest_solid_subtangle_milestone_index"`
	Neighbors                          int64  `json:"neighbors"`
	Time                               int64  `json:"time"`
	Tips                               int64  `json:"tips"`
	TransactionsToRequest              int64  `json:"transactions_to_request"`
	Duration                           int64  `json:"duration"`
}

// LedgerService represents the client of the ledger network node.
type LedgerService interface {
	// GetNewAddress derives the address at index, or the next unused one when index is nil.
	GetNewAddress(ctx context.Context, seed string, index *uint64) (string, error)
	FindTransactions(ctx context.Context, address string) ([]LedgerTransaction, error)
	// IsConfirmed reports whether the transaction is referenced by the latest milestone.
	IsConfirmed(ctx context.Context, txHash string) (bool, error)
	// PrepareTransfer builds and signs the bundle, returning its trytes.
	PrepareTransfer(ctx context.Context, spec TransferSpec) ([]string, error)
	// SendTrytes runs tip selection and proof of work, then broadcasts and stores the bundle.
	SendTrytes(ctx context.Context, trytes []string, depth, minWeightMagnitude uint64) (*BroadcastResult, error)
	// AttachAddress attaches a zero-value transaction to address.
	AttachAddress(ctx context.Context, seed, address, tag string, depth, minWeightMagnitude uint64) error
	NodeInfo(ctx context.Context) (*NodeInfo, error)
}

// PriceService provides the last traded price of the token in USD (per MIOTA).
type PriceService interface {
	LastPrice(ctx context.Context) (float64, error)
}
