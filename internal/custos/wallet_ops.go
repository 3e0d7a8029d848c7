package custos

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/internal/session"
	"github.com/core-coin/custos/internal/transfer"
	"github.com/core-coin/custos/pkg/logger"
)

var errMalformedInput = errors.New("malformed input")

// walletInput is the answer to a key challenge.
type walletInput struct {
	key       string
	amount    int64
	recipient string
}

// parseInput reads "KEY", "KEY AMOUNT" or "KEY AMOUNT ADDRESS" depending on op.
func parseInput(op session.Op, text string) (walletInput, error) {
	fields := strings.Fields(text)
	want := 1
	switch op {
	case session.OpDonate:
		want = 2
	case session.OpSend:
		want = 3
	}
	if len(fields) != want {
		return walletInput{}, fmt.Errorf("%w: want %d fields, got %d", errMalformedInput, want, len(fields))
	}

	in := walletInput{key: fields[0]}
	if want >= 2 {
		amount, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return walletInput{}, fmt.Errorf("%w: amount %q", errMalformedInput, fields[1])
		}
		in.amount = amount
	}
	if want == 3 {
		in.recipient = fields[2]
	}
	return in, nil
}

// runWalletOp runs op with the key supplied by the user. Once the seed is
// decrypted the wallet is always re-keyed, whether op succeeds or not, and
// the new key is delivered before the transaction commits. A wrong key
// leaves everything untouched and keeps the challenge open.
func (c *Custos) runWalletOp(ctx context.Context, log *logger.Logger, userID int64, op session.Op, in walletInput) {
	var (
		keyNum int
		opErr  error
	)
	err := c.repo.WithTransaction(ctx, func(tx models.Repository) error {
		wallet, err := tx.LockWallet(ctx, userID)
		if err != nil {
			return err
		}
		if err := c.vault.Verify(in.key, wallet.HashedKey, wallet.SaltKey); err != nil {
			return err
		}
		seed, err := c.vault.Decrypt(wallet.Seed, in.key)
		if err != nil {
			return err
		}
		c.reply(ctx, log, userID, keyReceivedText)

		updated := *wallet
		var texts []string
		opErr = tx.WithTransaction(ctx, func(tx models.Repository) error {
			var err error
			texts, err = c.perform(ctx, tx, op, &updated, seed, in)
			return err
		})
		if opErr != nil {
			log.Warnw("wallet operation failed", "error", opErr)
			texts = []string{failureText(op, opErr)}
			updated.NextIndex = wallet.NextIndex
		}

		km, err := c.vault.IssueNewKey(seed)
		if err != nil {
			return err
		}
		updated.Seed = km.EncryptedSeed
		updated.HashedKey = km.HashedKey
		updated.SaltKey = km.Salt
		updated.KeyNum = wallet.KeyNum + 1

		if err := c.deliverKey(ctx, userID, append(texts, nextKeyText(updated.KeyNum)), km.Key); err != nil {
			return err
		}
		if err := tx.UpdateWallet(ctx, &updated); err != nil {
			return err
		}
		keyNum = updated.KeyNum
		return nil
	})

	switch {
	case errors.Is(err, models.ErrInvalidKey):
		log.Infow("wrong key")
		c.metrics.Operation(string(op), "invalid_key")
		c.reply(ctx, log, userID, wrongKeyText(op))
		return
	case errors.Is(err, models.ErrInvalidSeed):
		log.Errorw("stored seed does not decrypt to a valid seed")
		c.metrics.Operation(string(op), "invalid_seed")
		c.reply(ctx, log, userID, seedErrorText(op))
	case errors.Is(err, models.ErrNotFound):
		c.reply(ctx, log, userID, needWalletText)
	case err != nil:
		log.Errorw("wallet operation aborted", "error", err)
		c.metrics.Operation(string(op), resultError)
		c.reply(ctx, log, userID, genericErrorText)
	default:
		c.metrics.KeyRotated()
		if opErr != nil {
			c.metrics.Operation(string(op), resultFailed)
		} else {
			c.metrics.Operation(string(op), resultOK)
		}
		log.Infow("key rotated", "keynum", keyNum, "op_failed", opErr != nil)
		c.reply(ctx, log, userID, keyActiveText(keyNum))
	}
	c.sessions.Resolve(userID)
}

// perform runs op inside its own savepoint. It returns the messages reporting
// the result and may advance wallet.NextIndex.
func (c *Custos) perform(
	ctx context.Context,
	tx models.Repository,
	op session.Op,
	wallet *models.Wallet,
	seed string,
	in walletInput,
) ([]string, error) {
	switch op {
	case session.OpBalance:
		return c.walletBalance(ctx, tx, wallet)
	case session.OpAddress:
		return c.newAddress(ctx, tx, wallet, seed)
	case session.OpSend:
		return c.transfer(ctx, tx, op, wallet, seed, transfer.Order{
			Recipient: in.recipient,
			Amount:    in.amount,
			Tag:       c.config.TransactionTag,
			Message:   c.config.TransactionMessage,
		})
	case session.OpDonate:
		recipient, err := c.book.DeriveAddress(ctx, c.config.DonationSeed, nil)
		if err != nil {
			return nil, err
		}
		return c.transfer(ctx, tx, op, wallet, seed, transfer.Order{
			Recipient: recipient,
			Amount:    in.amount,
			Tag:       c.config.DonationTag,
			Message:   c.config.TransactionMessage,
		})
	}
	return nil, fmt.Errorf("unknown operation %q", op)
}

// walletBalance refreshes the balance of every spendable address. Addresses
// the node could not answer for keep their stored balance and are left out
// of the total.
func (c *Custos) walletBalance(ctx context.Context, tx models.Repository, wallet *models.Wallet) ([]string, error) {
	spendable, err := c.book.ListSpendable(ctx, tx, wallet.TelegramID)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, a := range c.reconciler.Reconcile(ctx, spendable) {
		if err := tx.UpdateAddressBalance(ctx, a.Address, a.Balance); err != nil {
			return nil, err
		}
		total += a.Balance
	}

	price, err := c.prices.LastPrice(ctx)
	if err != nil {
		c.logger.Warnw("price unavailable for balance estimate", "error", err)
	}
	return []string{balanceText(total, price, err == nil && price > 0)}, nil
}

// newAddress derives the address at the next index, attaches it to the
// tangle and records it.
func (c *Custos) newAddress(ctx context.Context, tx models.Repository, wallet *models.Wallet, seed string) ([]string, error) {
	index := wallet.NextIndex
	address, err := c.book.DeriveAddress(ctx, seed, &index)
	if err != nil {
		return nil, err
	}
	err = c.ledger.AttachAddress(ctx, seed, address, c.config.TransactionTag, c.config.Depth, c.config.MinWeightMagnitude)
	if err != nil {
		return nil, fmt.Errorf("failed to attach address: %w: %w", models.ErrNetwork, err)
	}
	err = c.book.Record(ctx, tx, &models.Address{
		Address:          address,
		TelegramSenderID: wallet.TelegramID,
		Index:            index,
		Security:         models.DefaultSecurity,
	})
	if err != nil {
		return nil, err
	}
	wallet.NextIndex = index + 1
	return []string{addressText(index), address}, nil
}

func (c *Custos) transfer(
	ctx context.Context,
	tx models.Repository,
	op session.Op,
	wallet *models.Wallet,
	seed string,
	order transfer.Order,
) ([]string, error) {
	res, err := c.transfers.Transfer(ctx, tx, wallet, seed, order)
	if err != nil {
		return nil, err
	}
	c.metrics.Transfer(string(op))
	bundle := res.Broadcast.Bundle
	return []string{transferText(op, order.Amount, bundle, c.config.ExplorerURL, c.config.ReattachURL)}, nil
}
