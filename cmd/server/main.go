package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/craftledger/backend/internal/application/catalog"
	identityapp "github.com/craftledger/backend/internal/application/identity"
	ledgerapp "github.com/craftledger/backend/internal/application/ledger"
	"github.com/craftledger/backend/internal/infrastructure/auth"
	"github.com/craftledger/backend/internal/infrastructure/cache"
	"github.com/craftledger/backend/internal/infrastructure/config"
	"github.com/craftledger/backend/internal/infrastructure/logger"
	"github.com/craftledger/backend/internal/infrastructure/persistence"
	"github.com/craftledger/backend/internal/interfaces/http/handler"
	"github.com/craftledger/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting CraftLedger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if cfg.App.Env != "production" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	itemRepo := persistence.NewGormItemRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, tenantRepo, membershipRepo, jwtService, log)
	membershipService := identityapp.NewMembershipService(membershipRepo, userRepo, log)
	itemService := catalogapp.NewItemService(itemRepo, transactionRepo, tenantRepo, log)
	ledgerService := ledgerapp.NewLedgerService(scope, transactionRepo, itemRepo, tenantRepo, log)
	ledgerService.SetRetryPolicy(cfg.Ledger.AppendMaxRetries, cfg.Ledger.AppendRetryDelay)

	switch cfg.Ledger.IdempotencyBackend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		ledgerService.SetIdempotencyStore(cache.NewRedisIdempotencyStore(redisClient, cfg.Ledger.IdempotencyTTL))
		log.Info("Idempotency store: redis", zap.String("addr", cfg.Redis.Addr()))
	default:
		ledgerService.SetIdempotencyStore(cache.NewInMemoryIdempotencyStore(cfg.Ledger.IdempotencyTTL))
		log.Info("Idempotency store: in-memory")
	}

	engine, err := router.Setup(router.Dependencies{
		Config:            cfg,
		Logger:            log,
		JWTService:        jwtService,
		SystemHandler:     handler.NewSystemHandler(db, version),
		AuthHandler:       handler.NewAuthHandler(authService),
		ItemHandler:       handler.NewItemHandler(itemService),
		LedgerHandler:     handler.NewLedgerHandler(ledgerService),
		MembershipHandler: handler.NewMembershipHandler(membershipService),
	})
	if err != nil {
		log.Fatal("Failed to set up router", zap.Error(err))
	}

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
