package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"splitledger/config"
	httpHandler "splitledger/internal/adapter/http/handler"
	"splitledger/internal/adapter/objectstore"
	"splitledger/internal/adapter/push"
	"splitledger/internal/adapter/sms"
	pgStorage "splitledger/internal/adapter/storage/postgres"
	redisStorage "splitledger/internal/adapter/storage/redis"
	"splitledger/internal/core/ports"
	"splitledger/internal/service"
	"splitledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Split Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	groupRepo := pgStorage.NewGroupRepo(pool)
	expenseRepo := pgStorage.NewExpenseRepo(pool)
	settlementRepo := pgStorage.NewSettlementRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	otpStore := redisStorage.NewOTPStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Outbound adapters
	smsSender := sms.NewHTTPSender(cfg.Auth.SMSSenderEndpoint, cfg.Auth.SMSSenderAPIKey, log)
	notifier := push.NewExpoNotifier(cfg.Push, log)
	receiptStore := objectstore.NewSupabaseStore(cfg.Storage, log)

	// Initialize business services
	userSvc := service.NewUserService(userRepo, hashSvc, log)
	authSvc := service.NewAuthService(userSvc, tokenSvc, smsSender, otpStore, rateLimitStore, cfg.Auth, log)
	groupSvc := service.NewGroupService(groupRepo, expenseRepo, userSvc, transactor, log)
	receiptSvc := service.NewReceiptService(receiptStore, cfg.Storage.ReceiptBucket, log)
	normalizer := service.NewSplitNormalizer(userSvc, groupSvc, log)
	ledgerSvc := service.NewLedgerService(
		expenseRepo,
		settlementRepo,
		normalizer,
		groupSvc,
		userSvc,
		receiptSvc,
		notifier,
		log,
	)
	analyticsSvc := service.NewAnalyticsService(expenseRepo, settlementRepo, groupRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		AnalyticsSvc:   analyticsSvc,
		GroupSvc:       groupSvc,
		UserSvc:        userSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
