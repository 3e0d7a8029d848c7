package notificator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	tgModels "github.com/go-telegram/bot/models"

	"github.com/core-coin/custos/internal/config"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
)

// TelegramNotificator is the chat transport of the bot. Inbound updates are
// converted and handed to the registered handler; outbound text goes
// through SendMessage.
type TelegramNotificator struct {
	logger *logger.Logger
	bot    *bot.Bot

	webhookURL string

	mu      sync.RWMutex
	handler models.CustosI
}

func NewTelegramNotificator(logger *logger.Logger, config *config.Config, opts ...bot.Option) (*TelegramNotificator, error) {
	provider := &TelegramNotificator{
		logger:     logger,
		webhookURL: config.TelegramWebhookURL,
	}
	opts = append([]bot.Option{bot.WithDefaultHandler(provider.onUpdate)}, opts...)

	b, err := bot.New(config.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	provider.bot = b
	return provider, nil
}

// SetHandler registers the receiver of inbound messages.
func (t *TelegramNotificator) SetHandler(handler models.CustosI) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

// SendMessage sends text to chatID. The error is returned to the caller,
// which decides whether delivery was mandatory.
func (t *TelegramNotificator) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// Webhook reports whether updates arrive through the webhook route.
func (t *TelegramNotificator) Webhook() bool {
	return t.webhookURL != ""
}

// WebhookHandler serves webhook updates. It is mounted by the HTTP API.
func (t *TelegramNotificator) WebhookHandler() http.HandlerFunc {
	return t.bot.WebhookHandler()
}

// Start receives updates until ctx is done, by webhook when a webhook URL is
// configured and by long polling otherwise.
func (t *TelegramNotificator) Start(ctx context.Context) error {
	if t.Webhook() {
		if _, err := t.bot.SetWebhook(ctx, &bot.SetWebhookParams{URL: t.webhookURL}); err != nil {
			return fmt.Errorf("failed to set telegram webhook: %w", err)
		}
		t.logger.Infow("Telegram bot started", "mode", "webhook", "url", t.webhookURL)
		t.bot.StartWebhook(ctx)
		return nil
	}

	if _, err := t.bot.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
		t.logger.Warnw("Failed to delete telegram webhook", "error", err)
	}
	t.logger.Infow("Telegram bot started", "mode", "polling")
	t.bot.Start(ctx)
	return nil
}

func (t *TelegramNotificator) onUpdate(ctx context.Context, b *bot.Bot, update *tgModels.Update) {
	msg, ok := toInboundMessage(update)
	if !ok {
		t.logger.Debug("Ignoring telegram update without text message")
		return
	}

	t.mu.RLock()
	handler := t.handler
	t.mu.RUnlock()
	if handler == nil {
		t.logger.Warnw("Telegram update received before handler was registered", "user", msg.SenderID)
		return
	}
	handler.HandleMessage(ctx, msg)
}

// toInboundMessage converts a Telegram update. Only text messages with a
// sender are kept.
func toInboundMessage(update *tgModels.Update) (*models.InboundMessage, bool) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return nil, false
	}
	m := update.Message
	return &models.InboundMessage{
		SenderID:  m.From.ID,
		ChatID:    m.Chat.ID,
		ChatType:  models.ChatType(m.Chat.Type),
		Username:  m.From.Username,
		FirstName: m.From.FirstName,
		LastName:  m.From.LastName,
		Text:      m.Text,
		IsCommand: isCommand(m),
	}, true
}

// isCommand reports whether the message starts with a bot command.
func isCommand(m *tgModels.Message) bool {
	for _, e := range m.Entities {
		if e.Type == tgModels.MessageEntityTypeBotCommand && e.Offset == 0 {
			return true
		}
	}
	return strings.HasPrefix(m.Text, "/")
}
