package blockchain

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/iotaledger/iota.go/api"
	"github.com/iotaledger/iota.go/bundle"
	"github.com/iotaledger/iota.go/checksum"
	"github.com/iotaledger/iota.go/consts"
	"github.com/iotaledger/iota.go/trinary"

	"github.com/core-coin/custos/internal/config"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
)

// Node talks to a tangle node over its HTTP API.
type Node struct {
	logger *logger.Logger
	config *config.Config
	apiURL string

	mu     sync.RWMutex
	client *api.API
}

// NewNode creates a new Node instance. Run must be called before use.
func NewNode(apiURL string, logger *logger.Logger, config *config.Config) *Node {
	return &Node{apiURL: apiURL, logger: logger, config: config}
}

func (n *Node) Run() error {
	client, err := api.ComposeAPI(api.HTTPClientSettings{
		URI:    n.apiURL,
		Client: &http.Client{Timeout: n.config.NodeTimeout},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to the node: %w", err)
	}
	n.mu.Lock()
	n.client = client
	n.mu.Unlock()
	n.logger.Info("Connected to node ", n.apiURL)
	return nil
}

func (n *Node) apiClient() (*api.API, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.client == nil {
		return nil, fmt.Errorf("node client is not initialized")
	}
	return n.client, nil
}

// call runs fn against the node client. The legacy client has no context
// support, so cancellation is only honored before the request starts.
func (n *Node) call(ctx context.Context, method string, fn func(c *api.API) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := n.apiClient()
	if err != nil {
		return err
	}
	start := time.Now()
	err = fn(c)
	n.logger.Debugw("node call", "method", method, "duration", time.Since(start), "error", err)
	return err
}

func (n *Node) GetNewAddress(ctx context.Context, seed string, index *uint64) (string, error) {
	opts := api.GetNewAddressOptions{Security: consts.SecurityLevelMedium}
	if index != nil {
		total := uint64(1)
		opts.Index = *index
		opts.Total = &total
	}
	var addresses trinary.Hashes
	err := n.call(ctx, "getNewAddress", func(c *api.API) (err error) {
		addresses, err = c.GetNewAddress(seed, opts)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to get new address: %w", err)
	}
	if len(addresses) == 0 {
		return "", fmt.Errorf("failed to get new address: empty response")
	}
	return addresses[len(addresses)-1], nil
}

func (n *Node) FindTransactions(ctx context.Context, address string) ([]models.LedgerTransaction, error) {
	var txs []models.LedgerTransaction
	err := n.call(ctx, "findTransactionObjects", func(c *api.API) error {
		found, err := c.FindTransactionObjects(api.FindTransactionsQuery{Addresses: trinary.Hashes{address}})
		if err != nil {
			return err
		}
		txs = make([]models.LedgerTransaction, 0, len(found))
		for _, tx := range found {
			txs = append(txs, models.LedgerTransaction{
				Hash:                tx.Hash,
				Address:             tx.Address,
				Value:               tx.Value,
				Bundle:              tx.Bundle,
				AttachmentTimestamp: tx.AttachmentTimestamp,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", err)
	}
	return txs, nil
}

func (n *Node) IsConfirmed(ctx context.Context, txHash string) (bool, error) {
	var states []bool
	err := n.call(ctx, "getLatestInclusion", func(c *api.API) (err error) {
		states, err = c.GetLatestInclusion(trinary.Hashes{txHash})
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to get inclusion state: %w", err)
	}
	return len(states) == 1 && states[0], nil
}

func (n *Node) PrepareTransfer(ctx context.Context, spec models.TransferSpec) ([]string, error) {
	recipient, err := checksum.AddChecksum(spec.Recipient, true, consts.AddressChecksumTrytesSize)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum recipient: %w", err)
	}
	transfers := bundle.Transfers{{
		Address: recipient,
		Value:   uint64(spec.Value),
		Message: spec.Message,
		Tag:     spec.Tag,
	}}

	opts := api.PrepareTransfersOptions{Security: consts.SecurityLevel(spec.Security)}
	for _, in := range spec.Inputs {
		opts.Inputs = append(opts.Inputs, api.Input{
			Address:  in.Address,
			Balance:  uint64(in.Balance),
			KeyIndex: in.KeyIndex,
			Security: consts.SecurityLevel(in.Security),
		})
	}
	if spec.RemainderAddress != "" {
		remainder := trinary.Hash(spec.RemainderAddress)
		opts.RemainderAddress = &remainder
	}

	var trytes []trinary.Trytes
	err = n.call(ctx, "prepareTransfers", func(c *api.API) (err error) {
		trytes, err = c.PrepareTransfers(spec.Seed, transfers, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare transfers: %w", err)
	}
	return trytes, nil
}

func (n *Node) SendTrytes(ctx context.Context, trytes []string, depth, minWeightMagnitude uint64) (*models.BroadcastResult, error) {
	var sent bundle.Bundle
	err := n.call(ctx, "sendTrytes", func(c *api.API) (err error) {
		sent, err = c.SendTrytes(trytes, depth, minWeightMagnitude)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send trytes: %w", err)
	}
	if len(sent) == 0 {
		return nil, fmt.Errorf("failed to send trytes: empty bundle")
	}
	tail := sent[0]
	return &models.BroadcastResult{
		Bundle:              tail.Bundle,
		TxHash:              tail.Hash,
		AttachmentTimestamp: tail.AttachmentTimestamp,
	}, nil
}

// AttachAddress attaches a zero-value transaction carrying tag to address.
func (n *Node) AttachAddress(ctx context.Context, seed, address, tag string, depth, minWeightMagnitude uint64) error {
	trytes, err := n.PrepareTransfer(ctx, models.TransferSpec{
		Seed:      seed,
		Recipient: address,
		Tag:       tag,
		Security:  int(consts.SecurityLevelMedium),
	})
	if err != nil {
		return err
	}
	_, err = n.SendTrytes(ctx, trytes, depth, minWeightMagnitude)
	return err
}

func (n *Node) NodeInfo(ctx context.Context) (*models.NodeInfo, error) {
	var info *api.GetNodeInfoResponse
	err := n.call(ctx, "getNodeInfo", func(c *api.API) (err error) {
		info, err = c.GetNodeInfo()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get node info: %w", err)
	}
	return &models.NodeInfo{
		Node:                               n.apiURL,
		AppName:                            info.AppName,
		AppVersion:                         info.AppVersion,
		LatestMilestoneIndex:               info.LatestMilestoneIndex,
		LatestSolidSubtangleMilestoneIndex: info.LatestSolidSubtangleMilestoneIndex,
		Neighbors:                          info.Neighbors,
		Time:                               info.Time,
		Tips:                               info.Tips,
		TransactionsToRequest:              info.TransactionsToRequest,
		Duration:                           info.Duration,
	}, nil
}
