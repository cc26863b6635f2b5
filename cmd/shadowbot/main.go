package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/shadowbot/shadowbot/internal/analytics"
	"github.com/shadowbot/shadowbot/internal/blockchain"
	"github.com/shadowbot/shadowbot/internal/config"
	"github.com/shadowbot/shadowbot/internal/emitter"
	"github.com/shadowbot/shadowbot/internal/http_api"
	"github.com/shadowbot/shadowbot/internal/intent"
	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/internal/notificator"
	"github.com/shadowbot/shadowbot/internal/repository"
	"github.com/shadowbot/shadowbot/internal/tracker"
	"github.com/shadowbot/shadowbot/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "shadowbot",
		Usage: "ShadowBot is a Telegram bot that tracks Ethereum wallets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "telegram-token", Aliases: []string{"T"}, Usage: "Telegram bot token"},
			&cli.StringFlag{Name: "webhook-url", Aliases: []string{"w"}, Usage: "Public Telegram webhook URL, long polling when empty"},
			&cli.StringFlag{Name: "webhook-secret", Usage: "Secret token Telegram sends with webhook updates, generated when empty"},
			&cli.StringFlag{Name: "etherscan-api-key", Aliases: []string{"k"}, Usage: "Etherscan API key"},
			&cli.StringFlag{Name: "rpc-url", Aliases: []string{"r"}, Usage: "Ethereum JSON-RPC URL used for balances"},
			&cli.StringFlag{Name: "database-url", Usage: "Postgres connection string"},
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.BoolFlag{Name: "memory-store", Usage: "Keep tracked wallets in memory instead of Postgres"},
			&cli.StringFlag{Name: "redis-url", Usage: "Redis URL for conversation state"},
			&cli.StringFlag{Name: "poll-interval", Aliases: []string{"i"}, Usage: "Wallet poll interval (e.g. 30s)"},
			&cli.IntFlag{Name: "api-port", Usage: "HTTP API port"},
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

func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("telegram-token") {
		cfg.TelegramBotToken = c.String("telegram-token")
	}
	if c.IsSet("webhook-url") {
		cfg.TelegramWebhookURL = c.String("webhook-url")
	}
	if c.IsSet("webhook-secret") {
		cfg.TelegramWebhookSecret = c.String("webhook-secret")
	}
	if c.IsSet("etherscan-api-key") {
		cfg.EtherscanAPIKey = c.String("etherscan-api-key")
	}
	if c.IsSet("rpc-url") {
		cfg.EthereumRPCURL = c.String("rpc-url")
	}
	if c.IsSet("database-url") {
		cfg.DatabaseURL = c.String("database-url")
	}
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
	if c.IsSet("redis-url") {
		cfg.RedisURL = c.String("redis-url")
	}
	if c.IsSet("poll-interval") {
		interval, err := config.ParseDuration(c.String("poll-interval"))
		if err != nil {
			return fmt.Errorf("invalid poll interval: %v", err)
		}
		cfg.PollInterval = interval
	}
	if c.IsSet("api-port") {
		cfg.APIPort = c.Int("api-port")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}
	return nil
}

func run(c *cli.Context) error {
	// Load configuration from environment variables
	cfg := config.Load()

	// Override with flags if set
	if err := applyFlags(c, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	var (
		repo   models.Repository
		health http_api.Pinger
	)
	if c.Bool("memory-store") {
		log.Warn("Using in-memory wallet store, tracked wallets are lost on restart")
		repo = repository.NewMemoryDB()
	} else {
		db, err := repository.NewPostgresDB(cfg.PostgresDSN(), log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}
		defer db.Close()
		repo, health = db, db
	}

	// Initialize conversation state
	var intents models.IntentStore
	if cfg.RedisURL != "" {
		redisStore, err := intent.NewRedisStore(cfg.RedisURL, cfg.IntentTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		intents = redisStore
	} else {
		intents = intent.NewMemoryStore(cfg.IntentTTL)
	}

	// Initialize blockchain data provider
	etherscan := blockchain.NewEtherscan(blockchain.EtherscanConfig{
		APIURL:    cfg.EtherscanAPIURL,
		APIKey:    cfg.EtherscanAPIKey,
		ChainID:   cfg.EtherscanChainID,
		RateLimit: cfg.EtherscanRateLimit,
	}, log)
	provider := blockchain.NewProvider(etherscan, nil)
	if cfg.EthereumRPCURL != "" {
		rpc := blockchain.NewEthereum(cfg.EthereumRPCURL, log)
		if err := rpc.ConnectToRPC(ctx); err != nil {
			return fmt.Errorf("failed to connect to ethereum rpc: %v", err)
		}
		defer rpc.Close()
		provider = blockchain.NewProvider(etherscan, rpc)
	}

	// Initialize notificator
	webhookSecret := cfg.TelegramWebhookSecret
	if cfg.TelegramWebhookURL != "" && webhookSecret == "" {
		if webhookSecret, err = notificator.NewWebhookSecret(); err != nil {
			return err
		}
		log.Info("Generated a webhook secret token for this run")
	}
	telegram, err := notificator.NewTelegramNotificator(log, cfg.TelegramBotToken, webhookSecret)
	if err != nil {
		return err
	}
	sink := notificator.NewNotificator(log, telegram)

	messages := tracker.NewMessages(cfg.ExplorerURL)
	service := tracker.NewService(repo, provider, sink, intents, analytics.NewEngine(nil), messages, log)
	telegram.SetTracker(service)

	monitorOpts := []tracker.MonitorOption{
		tracker.WithInterval(cfg.PollInterval),
		tracker.WithConcurrency(cfg.MonitorConcurrency),
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := emitter.NewKafkaEmitter(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer kafka.Close()
		monitorOpts = append(monitorOpts, tracker.WithPublisher(kafka))
	}
	monitor := tracker.NewMonitor(repo, provider, sink, messages, log, monitorOpts...)

	// Initialize API server
	apiOpts := []http_api.ServerOption{}
	if health != nil {
		apiOpts = append(apiOpts, http_api.WithHealthCheck(health))
	}
	if cfg.TelegramWebhookURL != "" {
		apiOpts = append(apiOpts, http_api.WithTelegramWebhook(telegram.WebhookHandler()))
	}
	apiServer := http_api.NewHTTPServer(service, cfg.APIPort, log, apiOpts...)
	go apiServer.Start()

	// Start the application
	monitor.Start(ctx)
	if cfg.TelegramWebhookURL != "" {
		if err := telegram.StartWebhook(ctx, cfg.TelegramWebhookURL); err != nil {
			return err
		}
		<-ctx.Done()
	} else {
		telegram.Start(ctx)
	}

	log.Info("Shutting down")
	monitor.Stop()
	if err := apiServer.Shutdown(); err != nil {
		log.Error("Failed to shut down HTTP server", "error", err)
	}
	return nil
}
