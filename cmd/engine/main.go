// Package main - entry point for the FinQuest progression engine.
//
// The engine owns one user's progress: XP, level, coins, streaks, combos,
// achievements and daily challenges. All reward math runs in memory through
// a serialized ledger; persistence is asynchronous and best-effort.
//
// Architecture follows Clean Architecture and DDD:
// - Domain: pure progression/challenge/achievement logic
// - Application: the ledger transaction layer
// - Infrastructure: Redis snapshot store, Postgres journal, event bus
// - Interface: REST endpoints for the client shell
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/finquest-app/progression-engine/config"
	"github.com/finquest-app/progression-engine/internal/application/ledger"
	"github.com/finquest-app/progression-engine/internal/domain/progression"
	"github.com/finquest-app/progression-engine/internal/infrastructure/messaging"
	"github.com/finquest-app/progression-engine/internal/infrastructure/persistence/memory"
	"github.com/finquest-app/progression-engine/internal/infrastructure/persistence/postgres"
	redisstore "github.com/finquest-app/progression-engine/internal/infrastructure/persistence/redis"
	"github.com/finquest-app/progression-engine/internal/infrastructure/persistence/resilient"
	httpserver "github.com/finquest-app/progression-engine/internal/interface/http"
	"github.com/finquest-app/progression-engine/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The engine is client-local: one process serves one user.
	userID := os.Getenv("ENGINE_USER_ID")
	if userID == "" {
		userID = "local"
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(os.Stdout, logger.ParseLevel(cfg.App.LogLevel))
	log.Info("starting progression engine",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("user_id", userID))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SNAPSHOT STORE (Redis, or in-memory for development)
	// ─────────────────────────────────────────────────────────────────────────
	var store progression.SnapshotStore
	var storeCloser func()

	if cfg.Redis.Disabled {
		log.Warn("redis disabled, snapshots will not survive restarts")
		store = memory.NewSnapshotStore()
	} else {
		log.Info("connecting to redis...")
		redisCfg := redisstore.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		snapshotStore, err := redisstore.NewSnapshotStore(redisCfg, log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = snapshotStore
		storeCloser = func() { _ = snapshotStore.Close() }
		log.Info("redis connection established")
	}
	if storeCloser != nil {
		defer storeCloser()
	}

	// Retry + circuit breaker around the store: a dead backend must never
	// block or crash the reward path.
	resilientCfg := resilient.DefaultConfig()
	resilientCfg.Logger = log
	store = resilient.Wrap(store, resilientCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REWARD JOURNAL (Postgres, optional)
	// ─────────────────────────────────────────────────────────────────────────
	var journal progression.Journal

	journalEnabled := !cfg.Database.Disabled && cfg.Features.IsEnabled(config.FeatureRewardJournal, userID)
	if journalEnabled {
		log.Info("connecting to database...")

		var dbConn *postgres.Connection
		if cfg.Database.URL != "" {
			dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		} else {
			pgCfg := postgres.DefaultConfig()
			pgCfg.Host = cfg.Database.Host
			pgCfg.Port = cfg.Database.Port
			pgCfg.Database = cfg.Database.Database
			pgCfg.User = cfg.Database.User
			pgCfg.Password = cfg.Database.Password
			pgCfg.SSLMode = cfg.Database.SSLMode
			pgCfg.MaxConns = cfg.Database.MaxConns
			pgCfg.MinConns = cfg.Database.MinConns
			dbConn, err = postgres.NewConnection(ctx, pgCfg)
		}
		if err != nil {
			// The journal is an observer; the engine runs without it.
			log.Warn("failed to connect to database, journal disabled", logger.Err(err))
		} else {
			defer func() {
				log.Info("closing database connection...")
				dbConn.Close()
			}()

			log.Info("running database migrations...")
			if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			journal = postgres.NewJournalRepository(dbConn)
			log.Info("reward journal enabled")
		}
	} else {
		log.Info("reward journal disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultConfig()
	busCfg.AsyncMode = true
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. LEDGER
	// ─────────────────────────────────────────────────────────────────────────
	lgr, err := ledger.New(ledger.Config{
		UserID:            userID,
		Store:             store,
		Journal:           journal,
		Bus:               bus,
		Logger:            log,
		PerfectBonusXP:    cfg.Engine.PerfectBonusXP,
		PerfectBonusCoins: cfg.Engine.PerfectBonusCoins,
	})
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}
	if err := lgr.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout

	handler := httpserver.NewProgressHandler(lgr, cfg.Engine.XPMultiplier, cfg.Engine.CoinMultiplier).
		WithAdminKeyHash(cfg.HTTP.AdminKeyHash)
	server := httpserver.NewServer(httpCfg, handler, log)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("progression engine is running", logger.String("addr", httpCfg.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}
