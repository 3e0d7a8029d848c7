package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/core-coin/custos/internal/blockchain"
	"github.com/core-coin/custos/internal/config"
	"github.com/core-coin/custos/internal/custos"
	"github.com/core-coin/custos/internal/http_api"
	"github.com/core-coin/custos/internal/metrics"
	"github.com/core-coin/custos/internal/notificator"
	"github.com/core-coin/custos/internal/pricefeed"
	"github.com/core-coin/custos/internal/repository"
	"github.com/core-coin/custos/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "custos",
		Usage: "Custos is a custodial tangle wallet Telegram bot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.StringFlag{Name: "node-url", Aliases: []string{"n"}, Usage: "Tangle node API URL"},
			&cli.IntFlag{Name: "api-port", Aliases: []string{"a"}, Usage: "HTTP API port"},
			&cli.StringFlag{Name: "webhook-url", Aliases: []string{"w"}, Usage: "Public Telegram webhook URL, long polling when empty"},
			&cli.BoolFlag{Name: "public", Usage: "Serve every Telegram user"},
			&cli.StringFlag{Name: "authorized-ids", Usage: "Comma separated Telegram ids allowed on a private bot"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: func(c *cli.Context) error {
			return run(c)
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("node-url") {
		cfg.NodeURL = c.String("node-url")
	}
	if c.IsSet("api-port") {
		cfg.APIPort = c.Int("api-port")
	}
	if c.IsSet("webhook-url") {
		cfg.TelegramWebhookURL = c.String("webhook-url")
	}
	if c.IsSet("public") {
		cfg.PublicBot = c.Bool("public")
	}
	if c.IsSet("authorized-ids") {
		cfg.AuthorizedIDs = config.ParseIDs(c.String("authorized-ids"))
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	// Initialize database
	db, err := repository.NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize ledger node client
	node := blockchain.NewNode(cfg.NodeURL, log, cfg)
	if err := node.Run(); err != nil {
		return err
	}

	prices := pricefeed.NewPriceFeed(log, cfg)
	prices.StartPeriodicUpdate()
	defer prices.Stop()

	telegram, err := notificator.NewTelegramNotificator(log, cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	// Create Custos instance
	custosApp := custos.NewCustos(db, node, prices, telegram, metrics.New(registry), log, cfg)
	telegram.SetHandler(custosApp)

	var webhook = telegram.WebhookHandler()
	if !telegram.Webhook() {
		webhook = nil
	}
	apiServer := http_api.NewHTTPServer(custosApp, registry, webhook, cfg.APIPort, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(apiServer.Start)
	g.Go(func() error {
		return telegram.Start(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		return apiServer.Shutdown()
	})
	return g.Wait()
}
