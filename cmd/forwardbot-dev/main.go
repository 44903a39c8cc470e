package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"go.uber.org/zap"

	"forwardbot/internal/app"
)

const devPassword = "devpassword"

func main() {
	log := zap.Must(zap.NewDevelopment())
	defer log.Sync()

	ctx := context.Background()

	log.Info("Starting ClickHouse testcontainer...")

	clickhouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:latest",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(devPassword),
		clickhouse.WithDatabase("default"),
	)
	if err != nil {
		log.Fatal("Failed to start ClickHouse container", zap.Error(err))
	}

	// Ensure container cleanup on exit
	defer func() {
		log.Info("Stopping ClickHouse container...")
		if err := clickhouseContainer.Terminate(ctx); err != nil {
			log.Warn("Failed to terminate container", zap.Error(err))
		}
	}()

	host, err := clickhouseContainer.Host(ctx)
	if err != nil {
		log.Fatal("Failed to get container host", zap.Error(err))
	}

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	if err != nil {
		log.Fatal("Failed to get container port", zap.Error(err))
	}

	log.Info("ClickHouse started", zap.String("host", host), zap.String("port", port.Port()))

	if err := migrate(host, port.Port()); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
	log.Info("Launch journal migrated")

	os.Setenv("CLICKHOUSE_HOST", host)
	os.Setenv("CLICKHOUSE_PORT", port.Port())
	os.Setenv("CLICKHOUSE_DATABASE", "default")
	os.Setenv("CLICKHOUSE_USER", "default")
	os.Setenv("CLICKHOUSE_PASSWORD", devPassword)
	os.Setenv("CLICKHOUSE_USE_TLS", "false")
	os.Setenv("WEBHOOK_MODE", "false")
	if os.Getenv("STORAGE_BACKEND") == "" {
		os.Setenv("STORAGE_BACKEND", "memory")
	}
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "debug")
	}

	for _, key := range []string{"BOT_TOKEN", "OWNER_ID", "CHANNEL_USERNAME"} {
		if os.Getenv(key) == "" {
			log.Warn("Required variable not set. Please set it in your .env file or environment.", zap.String("key", key))
		}
	}

	application, err := app.New()
	if err != nil {
		log.Error("Failed to create application", zap.Error(err))
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := application.Run(); err != nil {
		log.Error("Application error", zap.Error(err))
	}
}

func migrate(host, port string) error {
	dsn := fmt.Sprintf("clickhouse://default:%s@%s:%s/default?dial_timeout=10s", devPassword, host, port)
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.SetDialect("clickhouse"); err != nil {
		return err
	}
	return goose.Up(db, "./migrations")
}
