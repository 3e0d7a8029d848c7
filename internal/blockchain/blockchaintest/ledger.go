// Package blockchaintest provides an in-memory ledger for tests.
package blockchaintest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/validation"
)

// ErrUnavailable is returned by the fake when a failure is injected.
var ErrUnavailable = errors.New("node unavailable")

// Ledger is a deterministic in-memory models.LedgerService.
type Ledger struct {
	mu sync.Mutex

	txs       map[string][]models.LedgerTransaction
	confirmed map[string]bool

	// FindErr fails FindTransactions for the listed addresses.
	FindErr map[string]error
	// IsConfirmedErr fails IsConfirmed for the listed hashes.
	IsConfirmedErr map[string]error

	DeriveErr  error
	PrepareErr error
	SendErr    error
	AttachErr  error
	NodeErr    error

	Prepared []models.TransferSpec
	Sent     [][]string
	Attached []string
	Calls    []string

	sequence int
}

func NewLedger() *Ledger {
	return &Ledger{
		txs:            make(map[string][]models.LedgerTransaction),
		confirmed:      make(map[string]bool),
		FindErr:        make(map[string]error),
		IsConfirmedErr: make(map[string]error),
	}
}

// AddressFor is the address the fake derives for seed at index.
func AddressFor(seed string, index uint64) string {
	return trytesOf(fmt.Sprintf("%s/%d", seed, index))
}

// AddTransaction records a transaction against its address.
func (l *Ledger) AddTransaction(tx models.LedgerTransaction, confirmed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs[tx.Address] = append(l.txs[tx.Address], tx)
	l.confirmed[tx.Hash] = confirmed
}

// CallCount returns how many times method was called.
func (l *Ledger) CallCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (l *Ledger) record(method string) {
	l.Calls = append(l.Calls, method)
}

func (l *Ledger) GetNewAddress(ctx context.Context, seed string, index *uint64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("GetNewAddress")
	if l.DeriveErr != nil {
		return "", l.DeriveErr
	}
	if index != nil {
		return AddressFor(seed, *index), nil
	}
	for i := uint64(0); ; i++ {
		addr := AddressFor(seed, i)
		if len(l.txs[addr]) == 0 {
			return addr, nil
		}
	}
}

func (l *Ledger) FindTransactions(ctx context.Context, address string) ([]models.LedgerTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("FindTransactions")
	if err := l.FindErr[address]; err != nil {
		return nil, err
	}
	return append([]models.LedgerTransaction(nil), l.txs[address]...), nil
}

func (l *Ledger) IsConfirmed(ctx context.Context, txHash string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("IsConfirmed")
	if err := l.IsConfirmedErr[txHash]; err != nil {
		return false, err
	}
	return l.confirmed[txHash], nil
}

func (l *Ledger) PrepareTransfer(ctx context.Context, spec models.TransferSpec) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("PrepareTransfer")
	if l.PrepareErr != nil {
		return nil, l.PrepareErr
	}
	l.Prepared = append(l.Prepared, spec)
	return []string{trytesOf(fmt.Sprintf("%s/%d/%d", spec.Recipient, spec.Value, len(l.Prepared)))}, nil
}

func (l *Ledger) SendTrytes(ctx context.Context, trytes []string, depth, minWeightMagnitude uint64) (*models.BroadcastResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("SendTrytes")
	if l.SendErr != nil {
		return nil, l.SendErr
	}
	l.Sent = append(l.Sent, trytes)
	l.sequence++
	return &models.BroadcastResult{
		Bundle:              trytesOf(fmt.Sprintf("bundle/%d", l.sequence)),
		TxHash:              trytesOf(fmt.Sprintf("tx/%d", l.sequence)),
		AttachmentTimestamp: int64(1500000000 + l.sequence),
	}, nil
}

func (l *Ledger) AttachAddress(ctx context.Context, seed, address, tag string, depth, minWeightMagnitude uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("AttachAddress")
	if l.AttachErr != nil {
		return l.AttachErr
	}
	l.Attached = append(l.Attached, address)
	l.sequence++
	hash := trytesOf(fmt.Sprintf("attach/%d", l.sequence))
	l.txs[address] = append(l.txs[address], models.LedgerTransaction{
		Hash:    hash,
		Address: address,
		Bundle:  hash,
	})
	return nil
}

func (l *Ledger) NodeInfo(ctx context.Context) (*models.NodeInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("NodeInfo")
	if l.NodeErr != nil {
		return nil, l.NodeErr
	}
	return &models.NodeInfo{
		Node:                               "fake",
		AppName:                            "IRI",
		AppVersion:                         "1.8.6",
		LatestMilestoneIndex:               100,
		LatestSolidSubtangleMilestoneIndex: 100,
		Neighbors:                          7,
	}, nil
}

func trytesOf(s string) string {
	var b strings.Builder
	for b.Len() < validation.AddressLength {
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", s, b.Len())))
		for _, c := range sum {
			if b.Len() == validation.AddressLength {
				break
			}
			b.WriteByte(validation.TryteAlphabet[int(c)%len(validation.TryteAlphabet)])
		}
	}
	return b.String()
}
