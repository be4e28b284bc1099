// Package cli holds the bootstrap steps shared by the painel subcommands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"orcamento/internal/amqp"
	"orcamento/internal/config"
	applog "orcamento/internal/log"
	"orcamento/internal/storage"
)

// amqpConnectAttempts bounds startup retries against the broker.
const amqpConnectAttempts = 3

// SetupLogger builds the application logger at the given level and makes
// it the slog default.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env (or the given files) for local development.
// A missing file is not an error.
func LoadEnvFile(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitHistory opens the snapshot database when SQLITE_DB_PATH is set.
// It returns nil when history is disabled.
func InitHistory(cfg *config.Config) (*storage.SQLiteRepository, error) {
	if !cfg.HistoryEnabled() {
		return nil, nil
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", cfg.SQLiteDBPath, err)
	}
	return repo, nil
}

// InitEvents connects to the broker when AMQP_URL is set. It returns nil
// when events are disabled.
func InitEvents(ctx context.Context, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.EventsEnabled() {
		return nil, nil
	}
	return amqp.ConnectWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqpConnectAttempts)
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
