package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"forwardbot/internal/bot"
	"forwardbot/internal/config"
	"forwardbot/internal/logger"
	"forwardbot/internal/storage"
	"forwardbot/internal/storage/bolt"
	"forwardbot/internal/storage/ch"
	"forwardbot/internal/storage/jsonfile"
	"forwardbot/internal/storage/sqlite"
	"forwardbot/internal/storage/stubs"
	"forwardbot/internal/subscription"
	"forwardbot/internal/transport"
	"forwardbot/internal/worker"
)

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	users   storage.UserStore
	journal storage.LaunchJournal
	bot     *bot.Bot
	server  *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Options{
		Level:          cfg.LogLevel,
		File:           cfg.LogFile,
		FileMaxSize:    cfg.LogFileMaxSize,
		FileMaxBackups: cfg.LogFileMaxBackups,
		FileMaxAge:     cfg.LogFileMaxAge,
		FileCompress:   cfg.LogFileCompress,
	})
	if envErr != nil {
		log.Info("No .env file found, using system environment variables")
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		config: cfg,
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}

	log.Info("Starting forward bot...")

	if err := app.initStorage(); err != nil {
		app.closeStorage()
		cancel()
		return nil, err
	}

	if err := app.initBot(); err != nil {
		app.closeStorage()
		cancel()
		return nil, err
	}

	app.initHTTPServer()

	return app, nil
}

// initStorage opens the user store and, when configured, the launch journal
func (a *App) initStorage() error {
	users, err := openUserStore(a.config)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}
	a.users = users
	a.logger.Info("User store opened", zap.String("backend", a.config.StorageBackend))

	if !a.config.JournalEnabled() {
		a.logger.Info("ClickHouse host not set, launch journal kept in memory")
		a.journal = stubs.NewMockDB()
		return nil
	}

	tlsStatus := "without TLS"
	if a.config.ClickHouseUseTLS {
		tlsStatus = "with TLS"
	}
	a.logger.Info("Connecting to ClickHouse",
		zap.String("host", a.config.ClickHouseHost),
		zap.Int("port", a.config.ClickHousePort),
		zap.String("database", a.config.ClickHouseDatabase),
		zap.String("user", a.config.ClickHouseUser),
		zap.String("tls", tlsStatus),
	)
	journal, err := ch.NewClickHouseDB(
		a.config.ClickHouseHost,
		a.config.ClickHousePort,
		a.config.ClickHouseDatabase,
		a.config.ClickHouseUser,
		a.config.ClickHousePassword,
		a.config.ClickHouseUseTLS,
	)
	if err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := journal.Initialize(a.ctx); err != nil {
		journal.Close()
		return fmt.Errorf("failed to initialize launch journal: %w", err)
	}
	a.journal = journal
	return nil
}

func openUserStore(cfg *config.Config) (storage.UserStore, error) {
	switch cfg.StorageBackend {
	case config.BackendJSON:
		return jsonfile.Open(cfg.UsersFile)
	case config.BackendBolt:
		return bolt.Open(cfg.BoltFile)
	case config.BackendSQLite:
		return sqlite.Open(cfg.SQLiteDSN)
	case config.BackendMemory:
		return stubs.NewMockDB(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// initBot wires the Telegram client, the gate and the worker into the bot
func (a *App) initBot() error {
	client, err := bot.NewBotAPI(a.config.BotToken, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	api := transport.NewThrottled(a.ctx, client, a.config.SendRPS)
	gate := subscription.NewGate(api, a.config.ChannelUsername, a.logger.Named("subscription"))
	workerClient := worker.NewClient(a.config.WorkerURL, a.config.WorkerTimeout, a.logger.Named("worker"))

	a.bot = bot.New(bot.Options{
		API:         api,
		Client:      client,
		Users:       a.users,
		Journal:     a.journal,
		Gate:        gate,
		Worker:      workerClient,
		OwnerID:     a.config.OwnerID,
		ChannelURL:  gate.JoinURL(),
		TrialPeriod: a.config.TrialPeriod,
		Logger:      a.logger.Named("bot"),
	})

	a.logger.Info("Bot created",
		zap.Int64("owner_id", a.config.OwnerID),
		zap.String("channel", gate.Channel()),
		zap.String("worker_url", a.config.WorkerURL),
	)
	return nil
}

// initHTTPServer prepares the HTTP server for health checks and webhook
func (a *App) initHTTPServer() {
	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      bot.NewHTTPServer(a.bot, a.config.WebhookMode).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	go a.bot.Run(a.ctx)

	if a.config.WebhookMode {
		a.logger.Info("Starting bot in WEBHOOK mode", zap.String("webhook_url", a.config.WebhookURL))
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			a.Shutdown()
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
	} else {
		a.logger.Info("Starting bot in POLLING mode")
		if err := a.bot.StartPolling(a.ctx); err != nil {
			a.Shutdown()
			return fmt.Errorf("failed to start polling: %w", err)
		}
	}

	select {
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.Stringer("signal", sig))
	case err := <-serverErr:
		a.logger.Error("HTTP server error", zap.Error(err))
		a.Shutdown()
		return err
	}

	a.logger.Info("Shutting down...")
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	a.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	err := a.closeStorage()
	if err != nil {
		a.logger.Error("Error closing storage", zap.Error(err))
	} else {
		a.logger.Info("Shutdown complete")
	}
	_ = a.logger.Sync()
	return err
}

func (a *App) closeStorage() error {
	var errs []error
	if a.users != nil {
		errs = append(errs, a.users.Close())
		a.users = nil
	}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
		a.journal = nil
	}
	return errors.Join(errs...)
}

// compile-time check that the throttled client serves both the bot and the gate
var (
	_ bot.Transport             = (*transport.Throttled)(nil)
	_ subscription.MemberGetter = (*transport.Throttled)(nil)
	_ transport.API             = (*tgbotapi.BotAPI)(nil)
)
