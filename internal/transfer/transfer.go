package transfer

import (
	"context"
	"fmt"

	"github.com/core-coin/custos/internal/addressbook"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/internal/reconciler"
	"github.com/core-coin/custos/pkg/logger"
	"github.com/core-coin/custos/pkg/validation"
)

// Order is a transfer requested by the owner of a wallet.
type Order struct {
	Recipient string
	Amount    int64
	Tag       string
	Message   string
}

// Result describes a broadcast transfer.
type Result struct {
	Selection        *Selection
	RemainderAddress string
	Broadcast        *models.BroadcastResult
}

// Service runs a transfer end to end: reuse check, reconciliation, input
// selection, remainder allocation, signing and broadcast.
type Service struct {
	logger     *logger.Logger
	book       *addressbook.Book
	reconciler *reconciler.Reconciler
	builder    *Builder
}

func NewService(
	book *addressbook.Book,
	reconciler *reconciler.Reconciler,
	builder *Builder,
	logger *logger.Logger,
) *Service {
	return &Service{
		logger:     logger,
		book:       book,
		reconciler: reconciler,
		builder:    builder,
	}
}

// Transfer spends from wallet. It must run inside a transaction opened by the
// caller on repo: input consumption and the remainder row become visible only
// if the broadcast succeeds and the caller commits. On success wallet.NextIndex
// is advanced when a remainder address was allocated; persisting the wallet
// is left to the caller.
func (s *Service) Transfer(ctx context.Context, repo models.Repository, wallet *models.Wallet, seed string, order Order) (*Result, error) {
	recipient, err := validation.ValidateAndNormalizeAddress(order.Recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidAddress, err)
	}
	if order.Amount <= 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidAmount, order.Amount)
	}
	if err := validation.ValidateTag(order.Tag); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidTag, err)
	}

	// reused recipients are rejected before anything is touched
	if err := s.reconciler.CheckAddressUnused(ctx, recipient); err != nil {
		return nil, err
	}

	spendable, err := s.book.ListSpendable(ctx, repo, wallet.TelegramID)
	if err != nil {
		return nil, err
	}
	reconciled := s.reconciler.Reconcile(ctx, spendable)
	for _, a := range reconciled {
		if err := repo.UpdateAddressBalance(ctx, a.Address, a.Balance); err != nil {
			return nil, err
		}
	}

	selection, err := SelectInputs(reconciled, order.Amount)
	if err != nil {
		return nil, err
	}

	nextIndex := wallet.NextIndex
	var remainder string
	if selection.Remainder > 0 {
		index := nextIndex
		remainder, err = s.book.DeriveAddress(ctx, seed, &index)
		if err != nil {
			return nil, err
		}
		err = s.book.Record(ctx, repo, &models.Address{
			Address:          remainder,
			TelegramSenderID: wallet.TelegramID,
			Index:            index,
			Balance:          selection.Remainder,
			Security:         models.DefaultSecurity,
		})
		if err != nil {
			return nil, err
		}
		nextIndex++
	}

	for _, in := range selection.Inputs {
		if err := s.book.MarkConsumed(ctx, repo, in.Address); err != nil {
			return nil, err
		}
	}

	payload, err := s.builder.Build(ctx, Request{
		Seed:             seed,
		Recipient:        recipient,
		Value:            order.Amount,
		Message:          order.Message,
		Tag:              order.Tag,
		RemainderAddress: remainder,
		Inputs:           selection.Inputs,
	})
	if err != nil {
		return nil, err
	}
	broadcast, err := s.builder.Broadcast(ctx, payload)
	if err != nil {
		return nil, err
	}

	err = repo.AddTxHistory(ctx, &models.TxHistory{
		TxHash:           broadcast.TxHash,
		TelegramSenderID: wallet.TelegramID,
		Bundle:           broadcast.Bundle,
		AttachTimestamp:  broadcast.AttachmentTimestamp,
	})
	if err != nil {
		return nil, err
	}

	wallet.NextIndex = nextIndex
	s.logger.Infow("transfer broadcast",
		"owner", wallet.TelegramID,
		"inputs", len(selection.Inputs),
		"remainder", selection.Remainder,
		"bundle", broadcast.Bundle)
	return &Result{Selection: selection, RemainderAddress: remainder, Broadcast: broadcast}, nil
}
