package transfer

import (
	"context"
	"fmt"

	"github.com/iotaledger/iota.go/converter"

	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
	"github.com/core-coin/custos/pkg/validation"
)

// Request describes a transfer to build. Message is plain ASCII text.
type Request struct {
	Seed             string
	Recipient        string
	Value            int64
	Message          string
	Tag              string
	RemainderAddress string
	Inputs           []models.Address
}

// Payload is a signed bundle ready to be attached.
type Payload struct {
	Trytes    []string
	Recipient string
	Value     int64
}

// Builder validates transfers and hands them to the ledger client for
// signing and broadcasting.
type Builder struct {
	logger *logger.Logger
	ledger models.LedgerService

	depth              uint64
	minWeightMagnitude uint64
}

func NewBuilder(ledger models.LedgerService, depth, minWeightMagnitude uint64, logger *logger.Logger) *Builder {
	return &Builder{
		logger:             logger,
		ledger:             ledger,
		depth:              depth,
		minWeightMagnitude: minWeightMagnitude,
	}
}

// Build validates req and asks the ledger client to prepare and sign the
// bundle. Validation failures never reach the network.
func (b *Builder) Build(ctx context.Context, req Request) (*Payload, error) {
	spec, err := b.validate(req)
	if err != nil {
		return nil, err
	}

	trytes, err := b.ledger.PrepareTransfer(ctx, *spec)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare transfer: %w: %w", models.ErrNetwork, err)
	}
	return &Payload{Trytes: trytes, Recipient: spec.Recipient, Value: spec.Value}, nil
}

// Broadcast runs tip selection and proof of work for the payload and
// broadcasts it. There is no retry at this layer.
func (b *Builder) Broadcast(ctx context.Context, payload *Payload) (*models.BroadcastResult, error) {
	res, err := b.ledger.SendTrytes(ctx, payload.Trytes, b.depth, b.minWeightMagnitude)
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast transfer: %w: %w", models.ErrNetwork, err)
	}
	b.logger.Infow("bundle broadcast", "bundle", res.Bundle, "value", payload.Value)
	return res, nil
}

func (b *Builder) validate(req Request) (*models.TransferSpec, error) {
	if !validation.IsSeed(req.Seed) {
		return nil, models.ErrInvalidSeed
	}
	recipient, err := validation.ValidateAndNormalizeAddress(req.Recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidAddress, err)
	}
	if req.Value < 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidAmount, req.Value)
	}
	if err := validation.ValidateTag(req.Tag); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidTag, err)
	}
	message, err := converter.ASCIIToTrytes(req.Message)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidMessage, err)
	}
	if err := validation.ValidateMessage(string(message)); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidMessage, err)
	}

	var total int64
	inputs := make([]models.Input, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		if in.UsedAsInput {
			return nil, fmt.Errorf("input %s: %w", in.Address, models.ErrAddressAlreadyUsedAsInput)
		}
		if !validation.IsAddress(in.Address) {
			return nil, fmt.Errorf("input %s: %w", in.Address, models.ErrInvalidAddress)
		}
		total += in.Balance
		inputs = append(inputs, models.Input{
			Address:  validation.NormalizeAddress(in.Address),
			Balance:  in.Balance,
			KeyIndex: in.Index,
			Security: in.Security,
		})
	}
	if total < req.Value {
		return nil, fmt.Errorf("%w: inputs hold %d, need %d", models.ErrInsufficientFunds, total, req.Value)
	}

	var remainder string
	if total > req.Value {
		if req.RemainderAddress == "" {
			return nil, fmt.Errorf("%w: remainder of %d without remainder address", models.ErrInvalidAddress, total-req.Value)
		}
		remainder, err = validation.ValidateAndNormalizeAddress(req.RemainderAddress)
		if err != nil {
			return nil, fmt.Errorf("%w: remainder: %s", models.ErrInvalidAddress, err)
		}
	}

	return &models.TransferSpec{
		Seed:             req.Seed,
		Recipient:        recipient,
		Value:            req.Value,
		Message:          string(message),
		Tag:              req.Tag,
		RemainderAddress: remainder,
		Inputs:           inputs,
		Security:         models.DefaultSecurity,
	}, nil
}
