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

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"starkride/internal/app"
	"starkride/internal/config"
	"starkride/internal/gateway"
	"starkride/internal/handler"
	"starkride/internal/logging"
	"starkride/internal/middleware"
	"starkride/internal/notifier"
	internalRedis "starkride/internal/redis"
	"starkride/internal/repository/postgres"
	"starkride/internal/service"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(cfg.Server.Production)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database and Redis clients can
	// be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	// Notification publisher. Kafka when configured, logger otherwise.
	var publisher notifier.Notifier
	if cfg.Kafka.Enabled {
		publisher = notifier.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("publishing notifications to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	} else {
		publisher = notifier.NewLogNotifier(logger)
	}
	defer publisher.Close()

	server := wireServer(db, redisClient, publisher, nrApp, logger, cfg)

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	publisher notifier.Notifier,
	nrApp *newrelic.Application,
	logger *zap.Logger,
	cfg *config.Config,
) *http.Server {
	// Repositories. Fare config rows change rarely and are read on
	// every quote, so they get a Redis read-through cache.
	userRepo := postgres.NewUserRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	requestRepo := postgres.NewRideRequestRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	txnRepo := postgres.NewTransactionRepository(db)
	fareRepo := internalRedis.NewCachedFareRepository(postgres.NewFareRepository(db), redisClient)

	gatewayClient := gateway.NewClient(cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.WebhookSecret)
	cooldownStore := internalRedis.NewCooldownStore(redisClient)

	// Services.
	notificationService := service.NewNotificationService(publisher, logger)
	fareService := service.NewFareService(fareRepo)
	walletService := service.NewWalletService(db, walletRepo)
	requestService := service.NewRideRequestService(requestRepo, rideRepo, driverRepo, cfg.Rides.ClaimWindow)
	rideService := service.NewRideService(db, rideRepo, requestRepo, walletRepo, driverRepo, userRepo, fareService, notificationService, logger)
	driverService := service.NewDriverService(driverRepo, walletRepo, rideRepo)
	userService := service.NewUserService(userRepo)
	paymentService := service.NewPaymentService(
		db, txnRepo, walletRepo, driverRepo,
		gatewayClient, cooldownStore, notificationService, logger,
		cfg.Rides.RechargeCooldown, cfg.Rides.MinFirstRecharge,
	)

	// Handlers.
	auth := middleware.NewAuth(cfg.Auth.JWTSecret)
	userHandler := handler.NewUserHandler(userService, auth)
	driverHandler := handler.NewDriverHandler(driverService, auth)
	requestHandler := handler.NewRideRequestHandler(requestService)
	rideHandler := handler.NewRideHandler(rideService)
	paymentHandler := handler.NewPaymentHandler(paymentService, walletService)
	fareHandler := handler.NewFareHandler(fareService)

	router := app.NewRouter(app.RouterDeps{
		UserHandler:        userHandler,
		DriverHandler:      driverHandler,
		RideRequestHandler: requestHandler,
		RideHandler:        rideHandler,
		PaymentHandler:     paymentHandler,
		FareHandler:        fareHandler,
		Auth:               auth,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
