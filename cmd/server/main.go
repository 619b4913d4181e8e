package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	invoicingapp "github.com/dormbill/backend/internal/application/invoicing"
	meteringapp "github.com/dormbill/backend/internal/application/metering"
	"github.com/dormbill/backend/internal/domain/metering"
	"github.com/dormbill/backend/internal/infrastructure/auth"
	"github.com/dormbill/backend/internal/infrastructure/cache"
	"github.com/dormbill/backend/internal/infrastructure/config"
	"github.com/dormbill/backend/internal/infrastructure/event"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/migration"
	"github.com/dormbill/backend/internal/infrastructure/notification"
	"github.com/dormbill/backend/internal/infrastructure/persistence"
	"github.com/dormbill/backend/internal/infrastructure/printing"
	"github.com/dormbill/backend/internal/infrastructure/storage"
	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/dormbill/backend/internal/interfaces/http/handler"
	"github.com/dormbill/backend/internal/interfaces/http/middleware"
	"github.com/dormbill/backend/internal/interfaces/http/router"
	"github.com/dormbill/backend/migrations"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/dormbill/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Dormitory Billing API
//	@version		1.0
//	@description	Utility metering and invoice billing for dormitory properties

//	@contact.name	API Support
//	@contact.url	https://github.com/dormbill/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	cfg.Watch(func(level string) {
		baseLog.SetLevel(level)
		baseLog.Info("Log level changed", zap.String("level", level))
	})

	ctx := context.Background()
	tel := setupTelemetry(ctx, cfg, baseLog.Logger)
	log := tel.log
	defer func() { _ = log.Sync() }()
	defer tel.shutdown()

	log.Info("Starting dormitory billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := migrate(db, cfg, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Database.SlowThreshold,
		DBSystem:        "postgresql",
	}, log).Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	if tel.meters.IsEnabled() {
		if _, err := telemetry.RegisterDBPoolMetrics(tel.meters.Meter("dormbill/db"), db.DB); err != nil {
			log.Warn("Failed to register connection pool metrics", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Redis backs the rate cache and idempotency keys; both degrade without it
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	// Repositories
	cycleRepo := persistence.NewGormMeterCycleRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	sendRecordRepo := persistence.NewGormSendRecordRepository(db.DB)
	rooms := persistence.NewGormRoomDirectory(db.DB)
	var rates metering.UtilityRateReader = persistence.NewGormUtilityRateReader(db.DB)
	if redisClient != nil {
		rates = cache.NewCachedRateReader(rates, redisClient, cfg.Redis.RateCacheTTL)
	}

	// Event bus with the audit trail subscriber
	eventBus := event.NewInMemoryEventBus()
	auditHandler := event.NewAuditLogHandler(db.DB)
	eventBus.Subscribe(auditHandler)
	log.Info("Event handlers registered", zap.Strings("audit_events", auditHandler.EventTypes()))

	billingMetrics, err := telemetry.NewBillingMetrics(tel.meters.Meter("dormbill/billing"))
	if err != nil {
		log.Warn("Billing metrics disabled", zap.Error(err))
		billingMetrics = nil
	}

	receipts, err := invoicingapp.NewSnowflakeReceipts(cfg.Billing.ReceiptNodeID)
	if err != nil {
		log.Fatal("Failed to create receipt number generator", zap.Error(err))
	}

	// Application services
	cycleService := meteringapp.NewCycleService(cycleRepo, rates, rooms, invoiceRepo)
	generationService := invoicingapp.NewGenerationService(invoiceRepo, cycleRepo, rooms, invoicingapp.GenerationDefaults{
		LateFeePerDay: cfg.Billing.DefaultLateFeePerDay,
		DueDays:       cfg.Billing.DefaultDueDays,
	})
	generationService.SetEventPublisher(eventBus)
	generationService.SetBillingMetrics(billingMetrics)

	lateFeeService := invoicingapp.NewLateFeeService(invoiceRepo)
	lateFeeService.SetEventPublisher(eventBus)
	lateFeeService.SetBillingMetrics(billingMetrics)

	invoiceService := invoicingapp.NewInvoiceService(invoiceRepo, lateFeeService)
	ledgerService := invoicingapp.NewLedgerService(invoiceRepo)

	paymentService := invoicingapp.NewPaymentService(invoiceRepo, lateFeeService, receipts)
	paymentService.SetEventPublisher(eventBus)
	paymentService.SetBillingMetrics(billingMetrics)

	dispatchers, closeDispatchers, err := buildDispatchers(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize invoice dispatch", zap.Error(err))
	}
	defer closeDispatchers()
	notificationService := invoicingapp.NewNotificationService(invoiceService, rooms, sendRecordRepo, dispatchers...)
	notificationService.SetBillingMetrics(billingMetrics)
	log.Info("Invoice send methods configured", zap.Strings("methods", notificationService.Methods()))

	// HTTP
	middleware.SetupValidator()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(tel.meters),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	var redisPing func(ctx context.Context) error
	if redisClient != nil {
		redisPing = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	engine.GET("/health", handler.NewHealthHandler(db, redisPing).Health)
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	billingOpts := router.BillingOptions{
		SendLimiter:    middleware.NewRateLimiter(cfg.HTTP.SendRateLimit, cfg.HTTP.SendRateWindow),
		Idempotency:    idempotencyStore,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		Profiling:      cfg.Telemetry.ProfilingEnabled,
	}
	if cfg.Auth.Enabled {
		billingOpts.Auth = middleware.JWTAuth(middleware.DefaultJWTConfig(auth.NewJWTService(cfg.Auth)))
	} else {
		log.Warn("Authentication disabled, property routes are open")
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.NewBillingGroup(router.BillingHandlers{
		Cycles:   handler.NewCycleHandler(cycleService),
		Invoices: handler.NewInvoiceHandler(generationService, invoiceService, notificationService),
		Ledger:   handler.NewLedgerHandler(ledgerService),
		Payments: handler.NewPaymentHandler(paymentService),
	}, billingOpts))
	r.Setup()
	for _, route := range r.Routes() {
		log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// migrate applies the embedded schema migrations, or gorm AutoMigrate when
// database.auto_migrate is set for local development
func migrate(db *persistence.Database, cfg *config.Config, log *zap.Logger) error {
	if cfg.Database.AutoMigrate {
		log.Info("Running gorm auto-migration")
		return db.AutoMigrate()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	// not closed: Close would also close the pool shared with gorm
	m, err := migration.NewEmbedded(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Info("Schema up to date", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// buildDispatchers wires PDF archiving and email delivery. Email is only
// offered when an SMTP host is configured.
func buildDispatchers(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]invoicingapp.Dispatcher, func(), error) {
	tmpl, err := printing.NewInvoiceTemplate(cfg.Billing.Locale, cfg.Billing.Currency)
	if err != nil {
		return nil, nil, err
	}
	renderer := printing.NewChromedpRenderer(printing.ChromedpConfig{
		ExecPath:       cfg.Printing.ChromePath,
		DefaultTimeout: cfg.Printing.Timeout,
		NoSandbox:      true,
	})
	closeRenderer := func() {
		if err := renderer.Close(); err != nil {
			log.Warn("Failed to close PDF renderer", zap.Error(err))
		}
	}
	printer := notification.NewPrinter(tmpl, renderer, cfg.App.Name, cfg.Printing.PoolSize)

	var store storage.DocumentStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3DocumentStore(ctx, cfg.Storage)
		if err != nil {
			closeRenderer()
			return nil, nil, err
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Warn("Invoice bucket check failed", zap.String("bucket", s3Store.Bucket()), zap.Error(err))
		}
		store = s3Store
	} else {
		log.Warn("No storage bucket configured, invoice PDFs are kept in memory")
		store = storage.NewMemoryDocumentStore()
	}

	dispatchers := []invoicingapp.Dispatcher{
		notification.NewPDFDispatcher(printer, store, cfg.Storage.Prefix),
	}
	if cfg.SMTP.Host != "" {
		dispatchers = append(dispatchers,
			notification.NewEmailDispatcher(printer, notification.NewSMTPSender(cfg.SMTP), cfg.SMTP.From))
	}
	return dispatchers, closeRenderer, nil
}
