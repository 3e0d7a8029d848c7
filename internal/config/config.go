package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/core-coin/custos/pkg/validation"
)

type Config struct {
	Development bool
	// API configuration
	APIPort int
	// Postgres configuration
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string

	// Ledger node configuration
	NodeURL            string
	NodeTimeout        time.Duration
	Depth              uint64
	MinWeightMagnitude uint64

	// Transfer configuration
	TransactionTag     string
	DonationTag        string
	TransactionMessage string
	// DonationSeed is the seed whose next address receives /donate transfers.
	DonationSeed string

	// Telegram configuration
	TelegramBotToken   string
	TelegramWebhookURL string
	BotUsername        string
	PublicBot          bool
	AuthorizedIDs      []int64

	// Price ticker configuration
	PriceTickerURL       string
	PriceRefreshInterval time.Duration

	// Explorer links shown after a transfer
	ExplorerURL string
	ReattachURL string
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:          getEnvAsBool("DEVELOPMENT", false),
		APIPort:              getEnvAsInt("API_PORT", 6532),
		PostgresUser:         getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:     getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:         getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:           getEnv("POSTGRES_DB", "custos"),
		NodeURL:              getEnv("NODE_URL", "http://localhost:14265"),
		NodeTimeout:          getEnvAsDuration("NODE_TIMEOUT", 60*time.Second),
		Depth:                uint64(getEnvAsInt("DEPTH", 9)),
		MinWeightMagnitude:   uint64(getEnvAsInt("MIN_WEIGHT_MAGNITUDE", 14)),
		TransactionTag:       getEnv("TRANSACTION_TAG", "IOTAWALLETBOT99999999999999"),
		DonationTag:          getEnv("DONATION_TAG", "IOTAWALLETBOTDONATION999999"),
		TransactionMessage:   getEnv("TRANSACTION_MESSAGE", "Transaction sent from IOTAWalletBot."),
		DonationSeed:         getEnv("DONATION_SEED", ""),
		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramWebhookURL:   getEnv("TELEGRAM_WEBHOOK_URL", ""),
		BotUsername:          getEnv("BOT_USERNAME", "IOTAWalletBot"),
		PublicBot:            getEnvAsBool("PUBLIC_BOT", true),
		AuthorizedIDs:        getEnvAsInt64List("AUTHORIZED_IDS"),
		PriceTickerURL:       getEnv("PRICE_TICKER_URL", "https://api.bitfinex.com/v1/pubticker/iotusd"),
		PriceRefreshInterval: getEnvAsDuration("PRICE_REFRESH_INTERVAL", time.Minute),
		ExplorerURL:          getEnv("EXPLORER_URL", "https://thetangle.org/bundle/"),
		ReattachURL:          getEnv("REATTACH_URL", "https://thetangle.org/"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.NodeURL == "" {
		return fmt.Errorf("NODE_URL is required")
	}

	if err := validation.ValidateTag(c.TransactionTag); err != nil {
		return fmt.Errorf("invalid TRANSACTION_TAG: %w", err)
	}

	if err := validation.ValidateTag(c.DonationTag); err != nil {
		return fmt.Errorf("invalid DONATION_TAG: %w", err)
	}

	if c.DonationSeed != "" && !validation.IsSeed(c.DonationSeed) {
		return fmt.Errorf("invalid DONATION_SEED format")
	}

	if !c.PublicBot && len(c.AuthorizedIDs) == 0 {
		return fmt.Errorf("AUTHORIZED_IDS is required when PUBLIC_BOT is false")
	}

	if c.PostgresDB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}

	return nil
}

// IsAuthorized reports whether the Telegram user may use the bot.
func (c *Config) IsAuthorized(id int64) bool {
	if c.PublicBot {
		return true
	}
	for _, authorized := range c.AuthorizedIDs {
		if authorized == id {
			return true
		}
	}
	return false
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsInt64List(name string) []int64 {
	valueStr, exists := os.LookupEnv(name)
	if !exists {
		return nil
	}
	return ParseIDs(valueStr)
}

// ParseIDs parses a comma separated list of Telegram ids, skipping malformed entries.
func ParseIDs(list string) []int64 {
	var ids []int64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
