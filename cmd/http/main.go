package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frontdesk-service/internal/app/config"
	"frontdesk-service/internal/app/delivery/http/controllers"
	"frontdesk-service/internal/app/delivery/http/middlewares"
	"frontdesk-service/internal/app/delivery/http/routers"
	"frontdesk-service/internal/app/drivers/database"
	"frontdesk-service/internal/app/drivers/logger"
	"frontdesk-service/internal/app/drivers/messaging"
	"frontdesk-service/internal/app/services/core/settlements"
	"frontdesk-service/internal/app/services/shared/locker"
	"frontdesk-service/internal/app/services/shared/payment_gateway"
	redisrepo "frontdesk-service/internal/app/services/shared/redis"
	"frontdesk-service/internal/app/services/shared/telemetry"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log := logger.NewLogrusLogger(internalConfig)
	zapLogger := logger.NewZapLogger(driverConfig, internalConfig)

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		log.Fatalf("Error loading location: %v", err)
	}
	time.Local = location

	mongoDB := database.NewMongoDB(driverConfig)
	redisClient := database.NewRedisClient(driverConfig)
	rabbitMQ := messaging.NewRabbitMQ(driverConfig)
	chiRouter := chi.NewRouter()

	bootstrapingTheApp(config.Bootstrap{
		Router:         chiRouter,
		MongoDB:        mongoDB,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		Logger:         log,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	}, zapLogger)

	server := &http.Server{
		Addr:    internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()
	log.Printf("Server listening on %s", internalConfig.App.Port)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Println("Waiting for pending requests to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeout),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

func bootstrapingTheApp(bootstrap config.Bootstrap, zapLogger *zap.Logger) {
	// Redis
	redisRepository := redisrepo.NewRedisRepository(bootstrap.Redis)
	lockerService := locker.NewLockService(redisRepository, zapLogger)

	// Gateway and telemetry
	gatewayService := payment_gateway.NewBridgeService(bootstrap.InternalConfig, zapLogger)
	telemetryService, err := telemetry.NewTelemetryService(bootstrap.RabbitMQ, zapLogger)
	if err != nil {
		bootstrap.Logger.Fatalf("Failed to initialize telemetry queues: %v", err)
	}

	// Settlements
	settlementMongoRepository := settlements.NewSettlementMongoRepository(
		bootstrap.MongoDB,
		bootstrap.DriverConfig.MongoDB.DbName,
	)
	settlementUsecase := settlements.NewSettlementUsecase(
		gatewayService,
		telemetryService,
		lockerService,
		settlementMongoRepository,
		bootstrap.InternalConfig,
		zapLogger,
	)

	// Controllers
	settlementController := controllers.NewSettlementController(zapLogger, settlementUsecase)
	deskSessionController := controllers.NewDeskSessionController(zapLogger, bootstrap.InternalConfig)

	// Middlewares and routes
	middlewares := middlewares.NewMiddlewares(zapLogger, bootstrap.InternalConfig)
	bootstrap.Router.Use(middlewares.RequestIDMiddleware)
	bootstrap.Router.Use(middlewares.Logging(zapLogger))

	routers.SetupRoutes(
		bootstrap.Router,
		bootstrap.InternalConfig,
		middlewares,
		deskSessionController,
		settlementController,
	)
}
