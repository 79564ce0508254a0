package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"cab/internal/app"
	"cab/internal/audit"
	"cab/internal/config"
	"cab/internal/handler"
	internalRedis "cab/internal/redis"
	"cab/internal/repository/postgres"
	"cab/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	if cfg.Booking.SeedDemoData {
		if err := postgres.Seed(ctx, db); err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
	}

	// Initialize Redis with New Relic instrumentation.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Connected to Redis")
	} else {
		log.Println("Redis disabled: running without distributed locks and idempotency")
	}

	// Initialize audit sink.
	auditSink, err := app.NewAuditSink(cfg.Audit)
	if err != nil {
		log.Fatalf("failed to initialize audit sink: %v", err)
	}
	defer func() {
		if err := auditSink.Close(); err != nil {
			log.Printf("failed to close audit sink: %v", err)
		}
	}()
	log.Printf("Audit sink: %s", cfg.Audit.Sink)

	// Wire dependencies.
	server, scheduler := wireServer(db, redisClient, auditSink, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	// Let in-flight settlements finish; stragglers resolve to FAILED.
	settleCtx, settleCancel := context.WithTimeout(context.Background(), cfg.Booking.SettlementTimeout)
	defer settleCancel()

	if err := scheduler.Shutdown(settleCtx); err != nil {
		log.Printf("settlement shutdown incomplete: %v", err)
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server together
// with the settlement scheduler that must be drained on shutdown.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	auditSink audit.Sink,
	nrApp *newrelic.Application,
	cfg *config.Config,
) (*http.Server, *service.SettlementScheduler) {
	// Initialize Redis stores.
	var lockStore internalRedis.LockStoreInterface
	if redisClient != nil {
		lockStore = internalRedis.NewLockStore(redisClient)
	}

	// Initialize repositories.
	riderRepo := postgres.NewRiderRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	settlementRecorder := postgres.NewSettlementRecorder(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	receiptService := service.NewReceiptService()
	allocator := service.NewVehicleAllocator(vehicleRepo, lockStore)
	scheduler := service.NewSettlementScheduler(
		bookingRepo,
		settlementRecorder,
		service.NewPaymentStrategies(nil),
		lockStore,
		notificationService,
		nrApp,
		service.SettlementConfig{
			Grace:         cfg.Booking.SettlementGrace,
			Timeout:       cfg.Booking.SettlementTimeout,
			MaxConcurrent: int64(cfg.Booking.SettlementConcurrency),
		},
	)
	bookingService := service.NewBookingService(
		riderRepo,
		vehicleRepo,
		driverRepo,
		bookingRepo,
		paymentRepo,
		allocator,
		scheduler,
		notificationService,
		auditSink,
	)

	// Initialize handlers.
	bookingHandler := handler.NewBookingHandler(bookingService, receiptService)
	riderHandler := handler.NewRiderHandler(riderRepo, bookingService)
	vehicleHandler := handler.NewVehicleHandler(vehicleRepo)
	paymentHandler := handler.NewPaymentHandler(paymentRepo)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		BookingHandler: bookingHandler,
		RiderHandler:   riderHandler,
		VehicleHandler: vehicleHandler,
		PaymentHandler: paymentHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return server, scheduler
}
