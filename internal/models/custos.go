package models

import "context"

type CustosI interface {
	// HandleMessage routes one inbound chat message.
	HandleMessage(ctx context.Context, msg *InboundMessage)

	// NodeInfo returns the status of the ledger node.
	NodeInfo(ctx context.Context) (*NodeInfo, error)

	// LastPrice returns the last traded price per MIOTA in USD.
	LastPrice(ctx context.Context) (float64, error)
}
