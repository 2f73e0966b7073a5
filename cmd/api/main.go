package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/congo-pay/online_wallet/internal/config"
	"github.com/congo-pay/online_wallet/internal/events"
	"github.com/congo-pay/online_wallet/internal/infra"
	"github.com/congo-pay/online_wallet/internal/ledger"
	"github.com/congo-pay/online_wallet/internal/logging"
	"github.com/congo-pay/online_wallet/internal/routes"
	"github.com/congo-pay/online_wallet/internal/server"
)

func main() {
	// A local .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppName, cfg.AppEnv)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited cleanly")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close resource", "error", err)
			}
		}
	}()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		db = pool

		if cfg.MigrationsDir != "" {
			if err := infra.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
				return err
			}
		}
	}

	store, closer, err := openLedger(cfg, db, logger)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if cache != nil {
		closers = append(closers, cache)
	}

	var publisher events.Publisher = events.NewLoggerPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		closers = append(closers, kp)
		publisher = kp
		logger.Info("publishing ledger events to kafka", "topic", cfg.KafkaTopic)
	}

	srv, err := server.New(routes.Deps{
		Cfg:       cfg,
		DB:        db,
		Cache:     cache,
		Logger:    logger,
		Ledger:    store,
		Publisher: publisher,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openLedger picks the ledger backend: Postgres, then a local file, then memory.
func openLedger(cfg config.Config, db *pgxpool.Pool, logger *slog.Logger) (ledger.Store, io.Closer, error) {
	switch {
	case db != nil:
		logger.Info("ledger backend", "kind", "postgres")
		return ledger.NewPostgresStore(db), nil, nil
	case cfg.LedgerFile != "":
		fileStore, err := ledger.NewFileStore(cfg.LedgerFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("ledger backend", "kind", "file", "path", cfg.LedgerFile)
		return fileStore, fileStore, nil
	default:
		logger.Warn("ledger backend is in-memory; balances are lost on restart")
		return ledger.NewInMemory(), nil, nil
	}
}
