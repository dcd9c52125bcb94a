package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/corebank/ledger/internal/adapter/http"
	"github.com/corebank/ledger/internal/adapter/http/handler"
	postgresRepo "github.com/corebank/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/corebank/ledger/internal/adapter/repository/redis"
	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/infrastructure/auth"
	"github.com/corebank/ledger/internal/infrastructure/config"
	"github.com/corebank/ledger/internal/infrastructure/metrics"
	"github.com/corebank/ledger/internal/infrastructure/notifier"
	"github.com/corebank/ledger/internal/infrastructure/postgres"
	"github.com/corebank/ledger/internal/infrastructure/redis"
	"github.com/corebank/ledger/internal/usecase"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns, cfg.DatabaseTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	var (
		idempotencyStore usecase.IdempotencyStore
		summaryCache     usecase.Cache
	)
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without cache and idempotency")
	} else {
		defer redisClient.Close()
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		summaryCache = redisRepo.NewCache(redisClient)
		log.Info().Msg("connected to redis")
	}

	externalFee, err := decimal.NewFromString(cfg.ExternalTransferFee)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.ExternalTransferFee).Msg("invalid external transfer fee")
	}

	m := metrics.New()

	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log.Logger)

	limits := usecase.NewLimitEvaluator(txnRepo)
	fees := domain.NewFeeSchedule(externalFee)

	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, txnRepo, outboxRepo, limits, fees, idGen, retrier, m)
	accountUC := usecase.NewAccountUseCase(accountRepo, txnRepo, outboxRepo, transferUC, idGen, m)
	ledgerUC := usecase.NewLedgerUseCase(txnRepo, accountRepo, ledgerRepo, summaryCache)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled && cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC, ledgerUC),
		TransactionHandler: handler.NewTransactionHandler(transferUC, ledgerUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		JWTManager:         jwtManager,
		RateLimit:          cfg.RateLimit,
		RateBurst:          cfg.RateBurst,
		Logger:             log.Logger,
	})

	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	defer stopDispatcher()

	dispatcher := notifier.NewDispatcher(notifier.Config{
		OutboxRepo: outboxRepo,
		Notifier:   notifier.NewLogNotifier(log.Logger),
		Logger:     log.Logger,
		Metrics:    m,
		BatchSize:  cfg.NotifyBatchSize,
		Interval:   cfg.NotifyInterval,
		Retention:  cfg.NotifyRetention,
	})
	go func() {
		if err := dispatcher.Start(dispatcherCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("notification dispatcher stopped")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopDispatcher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
