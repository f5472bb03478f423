package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	syncapp "github.com/shopbridge/backend/internal/application/sync"
	"github.com/shopbridge/backend/internal/domain/reconcile"
	"github.com/shopbridge/backend/internal/infrastructure/batch"
	"github.com/shopbridge/backend/internal/infrastructure/config"
	"github.com/shopbridge/backend/internal/infrastructure/event"
	"github.com/shopbridge/backend/internal/infrastructure/lock"
	"github.com/shopbridge/backend/internal/infrastructure/logger"
	"github.com/shopbridge/backend/internal/infrastructure/persistence"
	"github.com/shopbridge/backend/internal/infrastructure/platform"
	"github.com/shopbridge/backend/internal/infrastructure/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shopbridge sync daemon",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Initialize repositories
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	mappingRepo := persistence.NewGormProductMappingRepository(db.DB)
	runRepo := persistence.NewGormSyncRunRepository(db.DB)

	// Initialize coordination store and lock manager
	store, err := lock.NewRedisCoordinationStore(lock.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to coordination store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing coordination store", zap.Error(err))
		}
	}()
	lockManager := lock.NewLeaseLockManager(store, log)
	log.Info("Coordination store connected", zap.String("addr", cfg.Redis.RedisAddr()))

	// Initialize platform adapters
	shopify, err := platform.NewShopifyAdapter(&platform.ShopifyConfig{
		ShopDomain:     cfg.Shopify.ShopDomain,
		AccessToken:    cfg.Shopify.AccessToken,
		APIVersion:     cfg.Shopify.APIVersion,
		LocationID:     cfg.Shopify.LocationID,
		Currency:       cfg.Shopify.Currency,
		TimeoutSeconds: cfg.Shopify.TimeoutSeconds,
	}, mappingRepo)
	if err != nil {
		log.Fatal("Failed to initialize Shopify adapter", zap.Error(err))
	}

	woocommerce, err := platform.NewWooCommerceAdapter(&platform.WooCommerceConfig{
		BaseURL:        cfg.WooCommerce.BaseURL,
		ConsumerKey:    cfg.WooCommerce.ConsumerKey,
		ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
		Currency:       cfg.WooCommerce.Currency,
		TimeoutSeconds: cfg.WooCommerce.TimeoutSeconds,
	}, mappingRepo)
	if err != nil {
		log.Fatal("Failed to initialize WooCommerce adapter", zap.Error(err))
	}

	// Initialize conflict resolver
	resolver, err := reconcile.NewResolver(ledgerRepo, reconcile.ResolverConfig{
		PriceThresholdPercent: decimal.NewFromFloat(cfg.Sync.PriceThresholdPercent),
		ManualOverrideWindow:  cfg.Sync.ManualOverrideWindow,
	})
	if err != nil {
		log.Fatal("Failed to initialize resolver", zap.Error(err))
	}

	// Initialize batch executor writing to the target platform. Items whose
	// resource has no target mapping are skipped before any network attempt.
	preflight := func(ctx context.Context, item reconcile.BatchItem) (bool, string) {
		if _, err := mappingRepo.Find(ctx, item.ResourceKey, item.Platform); errors.Is(err, reconcile.ErrMappingNotFound) {
			return true, "no platform mapping"
		}
		return false, ""
	}
	executor, err := batch.NewExecutor(woocommerce, batch.ExecutorConfig{
		BatchSize:       cfg.Batch.BatchSize,
		InterBatchDelay: cfg.Batch.InterBatchDelay,
		FailFast:        cfg.Batch.FailFast,
		Retry: batch.RetryConfig{
			MaxRetries:          cfg.Batch.MaxRetries,
			InitialDelay:        cfg.Batch.InitialRetryDelay,
			MaxDelay:            cfg.Batch.MaxRetryDelay,
			Multiplier:          cfg.Batch.RetryMultiplier,
			RandomizationFactor: batch.DefaultRetryConfig().RandomizationFactor,
		},
		Breaker: batch.BreakerConfig{
			FailureThreshold: uint32(cfg.Batch.BreakerFailureThresh),
			Cooldown:         cfg.Batch.BreakerCooldown,
		},
	}, preflight, log)
	if err != nil {
		log.Fatal("Failed to initialize batch executor", zap.Error(err))
	}

	// Initialize event bus and the audit trail subscriber
	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := syncapp.NewAuditHandler(log)
	eventBus.Subscribe(auditHandler)
	log.Info("Event handlers registered", zap.Strings("audit_events", auditHandler.EventTypes()))

	// Initialize sync orchestrator
	orchestrator, err := syncapp.NewOrchestrator(
		lockManager,
		shopify,
		woocommerce,
		resolver,
		executor,
		ledgerRepo,
		runRepo,
		eventBus,
		log,
		syncapp.Config{
			LeaseTTL:       cfg.Sync.LeaseTTL,
			TargetCurrency: cfg.WooCommerce.Currency,
			Pricing: reconcile.PriceContext{
				ExchangeRate:     decimal.NewFromFloat(cfg.Sync.ExchangeRate),
				MarginMultiplier: decimal.NewFromFloat(cfg.Sync.MarginMultiplier),
			},
			ReadRetry: batch.RetryConfig{
				MaxRetries:          cfg.Sync.ReadMaxAttempts - 1,
				InitialDelay:        cfg.Sync.ReadRetryDelay,
				MaxDelay:            10 * cfg.Sync.ReadRetryDelay,
				Multiplier:          2.0,
				RandomizationFactor: batch.DefaultRetryConfig().RandomizationFactor,
			},
		},
	)
	if err != nil {
		log.Fatal("Failed to initialize orchestrator", zap.Error(err))
	}

	// Initialize and start the sync scheduler
	syncScheduler, err := scheduler.NewSyncScheduler(scheduler.Config{
		Enabled:           cfg.Scheduler.Enabled,
		QuantityInterval:  cfg.Scheduler.QuantityInterval,
		PriceInterval:     cfg.Scheduler.PriceInterval,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		HistoryLimit:      cfg.Scheduler.HistoryLimit,
	}, orchestrator, mappingRepo, log)
	if err != nil {
		log.Fatal("Failed to initialize sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}

	log.Info("Sync daemon started",
		zap.Bool("interval_triggers", cfg.Scheduler.Enabled),
		zap.Duration("quantity_interval", cfg.Scheduler.QuantityInterval),
		zap.Duration("price_interval", cfg.Scheduler.PriceInterval),
	)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	// Abort the run in flight between chunks, then drain workers.
	orchestrator.Abort()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := syncScheduler.Stop(stopCtx); err != nil {
		log.Error("Sync scheduler did not stop cleanly", zap.Error(err))
	}

	log.Info("Sync daemon stopped")
}
