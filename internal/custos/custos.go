package custos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/core-coin/custos/internal/addressbook"
	"github.com/core-coin/custos/internal/config"
	"github.com/core-coin/custos/internal/metrics"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/internal/reconciler"
	"github.com/core-coin/custos/internal/session"
	"github.com/core-coin/custos/internal/transfer"
	"github.com/core-coin/custos/internal/vault"
	"github.com/core-coin/custos/pkg/logger"
)

const (
	cmdStart     = "start"
	cmdHelp      = "help"
	cmdHelpHelp  = "help_help"
	cmdNodeInfo  = "node_info"
	cmdPrices    = "iota_prices"
	opStart      = "start"
	resultOK     = "ok"
	resultFailed = "failed"
	resultError  = "error"
)

// walletOps maps the command of every key protected operation.
var walletOps = map[string]session.Op{
	string(session.OpBalance): session.OpBalance,
	string(session.OpAddress): session.OpAddress,
	string(session.OpSend):    session.OpSend,
	string(session.OpDonate):  session.OpDonate,
}

// Custos is the main struct of the wallet bot.
// It owns every wallet component and serves the chat commands.
type Custos struct {
	logger *logger.Logger
	config *config.Config

	repo      models.Repository
	ledger    models.LedgerService
	prices    models.PriceService
	messenger models.Messenger
	metrics   *metrics.Metrics

	vault      *vault.Vault
	book       *addressbook.Book
	reconciler *reconciler.Reconciler
	transfers  *transfer.Service
	sessions   *session.Machine
}

// NewCustos creates a new Custos instance
func NewCustos(
	repo models.Repository,
	ledger models.LedgerService,
	prices models.PriceService,
	messenger models.Messenger,
	metrics *metrics.Metrics,
	logger *logger.Logger,
	config *config.Config,
) *Custos {
	book := addressbook.NewBook(ledger, logger)
	rec := reconciler.NewReconciler(ledger, metrics, logger)
	builder := transfer.NewBuilder(ledger, config.Depth, config.MinWeightMagnitude, logger)
	return &Custos{
		logger:     logger,
		config:     config,
		repo:       repo,
		ledger:     ledger,
		prices:     prices,
		messenger:  messenger,
		metrics:    metrics,
		vault:      vault.NewVault(),
		book:       book,
		reconciler: rec,
		transfers:  transfer.NewService(book, rec, builder, logger),
		sessions:   session.NewMachine(),
	}
}

// HandleMessage routes one inbound message. Messages of the same user are
// served one at a time.
func (c *Custos) HandleMessage(ctx context.Context, msg *models.InboundMessage) {
	log := c.logger.With("request_id", uuid.NewString(), "user", msg.SenderID)

	unlock := c.sessions.Lock(msg.SenderID)
	defer unlock()

	if !msg.IsCommand {
		c.handleText(ctx, log, msg)
		return
	}

	cmd, target := parseCommand(msg.Text)
	if target != "" && !strings.EqualFold(target, c.config.BotUsername) {
		return
	}
	op, isOp := walletOps[cmd]
	if !isOp && !isCommand(cmd) {
		c.reply(ctx, log, msg.ChatID, wrongCommandText)
		return
	}
	if !c.config.IsAuthorized(msg.SenderID) {
		log.Infow("unauthorized user", "command", cmd)
		c.reply(ctx, log, msg.ChatID, unavailableText)
		return
	}

	// a command never answers an outstanding challenge
	if pending, ok := c.sessions.Pending(msg.SenderID); ok {
		c.reply(ctx, log, msg.SenderID, strayText(pending))
	}

	log.Debugw("command received", "command", cmd, "chat_type", msg.ChatType)
	switch {
	case isOp:
		c.challenge(ctx, log.With("op", op), msg, op)
	case cmd == cmdStart:
		c.start(ctx, log.With("op", opStart), msg)
	case cmd == cmdHelp:
		c.reply(ctx, log, msg.ChatID, helpText)
	case cmd == cmdHelpHelp:
		c.reply(ctx, log, msg.ChatID, helpHelpText)
	case cmd == cmdNodeInfo:
		info, err := c.NodeInfo(ctx)
		if err != nil {
			log.Errorw("failed to get node info", "error", err)
			c.reply(ctx, log, msg.ChatID, nodeErrorText)
			return
		}
		c.reply(ctx, log, msg.ChatID, nodeInfoText(info))
	case cmd == cmdPrices:
		price, err := c.LastPrice(ctx)
		if err != nil || price <= 0 {
			log.Errorw("failed to get price", "error", err)
			c.reply(ctx, log, msg.ChatID, priceErrorText)
			return
		}
		c.reply(ctx, log, msg.ChatID, pricesText(price))
	}
}

// NodeInfo returns the status of the ledger node.
func (c *Custos) NodeInfo(ctx context.Context) (*models.NodeInfo, error) {
	return c.ledger.NodeInfo(ctx)
}

// LastPrice returns the last traded price per MIOTA in USD.
func (c *Custos) LastPrice(ctx context.Context) (float64, error) {
	return c.prices.LastPrice(ctx)
}

func isCommand(cmd string) bool {
	switch cmd {
	case cmdStart, cmdHelp, cmdHelpHelp, cmdNodeInfo, cmdPrices:
		return true
	}
	return false
}

// parseCommand splits "/cmd@bot args" into cmd and bot.
func parseCommand(text string) (cmd, target string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	cmd = strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd, target = cmd[:i], cmd[i+1:]
	}
	return cmd, target
}

// reply sends text and logs delivery failures. Only key delivery has to
// succeed, everything else is best effort.
func (c *Custos) reply(ctx context.Context, log *logger.Logger, chatID int64, text string) {
	if err := c.messenger.SendMessage(ctx, chatID, text); err != nil {
		log.Warnw("failed to send message", "chat", chatID, "error", err)
	}
}

// deliverKey sends texts followed by the key, each as its own message.
func (c *Custos) deliverKey(ctx context.Context, chatID int64, texts []string, key string) error {
	for _, text := range append(texts, key) {
		if err := c.messenger.SendMessage(ctx, chatID, text); err != nil {
			return fmt.Errorf("failed to deliver key: %w", err)
		}
	}
	return nil
}

func isGroup(msg *models.InboundMessage) bool {
	return msg.ChatType == models.ChatGroup || msg.ChatType == models.ChatSupergroup
}

// start creates the wallet of a new user. The first key must reach the user
// before the wallet is committed.
func (c *Custos) start(ctx context.Context, log *logger.Logger, msg *models.InboundMessage) {
	if isGroup(msg) {
		c.reply(ctx, log, msg.ChatID, groupNoticeText("", c.config.BotUsername))
	}

	status, err := c.repo.GetUserStatus(ctx, msg.SenderID)
	if err != nil {
		log.Errorw("failed to get user status", "error", err)
		c.metrics.Operation(opStart, resultError)
		c.reply(ctx, log, msg.SenderID, genericErrorText)
		return
	}
	if c.sessions.State(msg.SenderID, status) != session.StateUnregistered {
		c.reply(ctx, log, msg.SenderID, walletExistsText)
		return
	}

	err = c.repo.WithTransaction(ctx, func(tx models.Repository) error {
		if err := tx.SetUserStatus(ctx, msg.SenderID, models.StatusNewUser); err != nil {
			return err
		}
		seed, err := c.vault.NewSeed()
		if err != nil {
			return err
		}
		km, err := c.vault.IssueNewKey(seed)
		if err != nil {
			return err
		}
		wallet := &models.Wallet{
			TelegramID: msg.SenderID,
			Username:   msg.Username,
			Seed:       km.EncryptedSeed,
			NextIndex:  0,
			KeyNum:     1,
			HashedKey:  km.HashedKey,
			SaltKey:    km.Salt,
		}
		if err := tx.CreateWallet(ctx, wallet); err != nil {
			return err
		}
		if err := tx.SetUserStatus(ctx, msg.SenderID, models.StatusWalletCreated); err != nil {
			return err
		}
		return c.deliverKey(ctx, msg.SenderID, []string{fmt.Sprintf(welcomeText, c.config.BotUsername, 1)}, km.Key)
	})
	if err != nil {
		log.Errorw("failed to create wallet", "error", err)
		c.metrics.Operation(opStart, resultError)
		c.reply(ctx, log, msg.SenderID, genericErrorText)
		return
	}

	log.Infow("wallet created")
	c.metrics.Operation(opStart, resultOK)
	c.reply(ctx, log, msg.SenderID, keyActiveText(1))
}

// challenge asks the user for the current key of the wallet and records the
// pending operation. A previous challenge is replaced.
func (c *Custos) challenge(ctx context.Context, log *logger.Logger, msg *models.InboundMessage, op session.Op) {
	if isGroup(msg) {
		c.reply(ctx, log, msg.ChatID, groupNoticeText(op, c.config.BotUsername))
	}
	if op == session.OpDonate && c.config.DonationSeed == "" {
		c.reply(ctx, log, msg.SenderID, donationOffText)
		return
	}

	wallet, err := c.walletOf(ctx, msg.SenderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.reply(ctx, log, msg.SenderID, needWalletText)
			return
		}
		log.Errorw("failed to get wallet", "error", err)
		c.reply(ctx, log, msg.SenderID, genericErrorText)
		return
	}

	if prev, replaced := c.sessions.Await(msg.SenderID, op); replaced {
		log.Debugw("challenge replaced", "previous", prev)
	}
	c.reply(ctx, log, msg.SenderID, promptText(op, wallet.KeyNum))
}

func (c *Custos) walletOf(ctx context.Context, userID int64) (*models.Wallet, error) {
	status, err := c.repo.GetUserStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.sessions.State(userID, status) == session.StateUnregistered {
		return nil, fmt.Errorf("user %d has no wallet: %w", userID, models.ErrNotFound)
	}
	return c.repo.GetWallet(ctx, userID)
}

// handleText answers the outstanding challenge of the sender. Text without a
// challenge is ignored.
func (c *Custos) handleText(ctx context.Context, log *logger.Logger, msg *models.InboundMessage) {
	op, ok := c.sessions.Pending(msg.SenderID)
	if !ok {
		log.Debugw("ignoring text without pending operation")
		return
	}
	log = log.With("op", op)

	in, err := parseInput(op, msg.Text)
	if err != nil {
		log.Debugw("malformed input", "error", err)
		c.reply(ctx, log, msg.SenderID, malformedInputText(op))
		return
	}
	c.runWalletOp(ctx, log, msg.SenderID, op, in)
}
