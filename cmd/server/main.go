package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"lifeline/internal/config"
	"lifeline/internal/handlers"
	"lifeline/internal/repositories/mongodb"
	"lifeline/internal/services"
	"lifeline/pkg/cache"
	"lifeline/pkg/database"
	"lifeline/pkg/logger"
	"lifeline/pkg/sms"
	"lifeline/pkg/websocket"
	"lifeline/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage.
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	if err := database.EnsureIndexes(ctx, db.Database); err != nil {
		appLogger.Fatalf("Failed to ensure indexes: %v", err)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Repositories.
	tripRepo := mongodb.NewTripRepository(db.Database)
	ambulanceRepo := mongodb.NewAmbulanceRepository(db.Database)
	hospitalRepo := mongodb.NewHospitalRepository(db.Database)
	patientRepo := mongodb.NewPatientRepository(db.Database)

	// Live channel plumbing.
	hostname, _ := os.Hostname()
	presenceService := services.NewPresenceService(redisCache, hostname, appLogger)

	hub := websocket.NewHub()
	hub.SetConnectHook(func(ctx context.Context, entityID, role, sessionID string) {
		if err := presenceService.Announce(ctx, entityID, role, sessionID); err != nil {
			appLogger.WithError(err).WithEntityID(entityID).Error("Failed to announce presence")
		}
	})
	hub.SetDisconnectHook(func(ctx context.Context, entityID, role, sessionID string) {
		if err := presenceService.Withdraw(ctx, entityID, sessionID); err != nil {
			appLogger.WithError(err).WithEntityID(entityID).Error("Failed to withdraw presence")
		}
	})
	go hub.Run(ctx)

	relay := services.NewEventRelay(presenceService, redisCache, hub, appLogger)
	go relay.Run(ctx)

	// SMS paging for escalations.
	var smsProvider sms.Provider
	switch cfg.SMS.Provider {
	case "aws":
		provider, err := sms.NewAWSSNSProvider(cfg.SMS.AWS.Region)
		if err != nil {
			appLogger.WithError(err).Warn("SNS unavailable, operator paging disabled")
		} else {
			smsProvider = provider
		}
	case "twilio":
		if cfg.SMS.Twilio.AccountSID != "" {
			smsProvider = sms.NewTwilioProvider(cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
		}
	}
	pager := services.NewPagingService(smsProvider, cfg.Dispatch.OperatorPagerNumbers, cfg.SMS.DefaultFrom, appLogger)

	// Domain services.
	locatorService := services.NewLocatorService(ambulanceRepo, hospitalRepo, cfg.Dispatch, appLogger)
	dispatchService := services.NewDispatchService(tripRepo, locatorService, presenceService, relay, pager, cfg.Dispatch, appLogger)
	tripService := services.NewTripService(tripRepo, ambulanceRepo, patientRepo, dispatchService, relay, appLogger)
	reservationService := services.NewReservationService(tripRepo, hospitalRepo, locatorService, relay, appLogger)
	ambulanceService := services.NewAmbulanceService(ambulanceRepo, appLogger)
	hospitalService := services.NewHospitalService(hospitalRepo, appLogger)
	patientService := services.NewPatientService(patientRepo)

	realtimeHandler := handlers.NewRealtimeHandler(tripService, appLogger)
	hub.SetInboundHandler(realtimeHandler.HandleInbound)

	// HTTP surface.
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	routes.Setup(router, cfg, appLogger, &routes.Handlers{
		Trip:      handlers.NewTripHandler(tripService),
		Ambulance: handlers.NewAmbulanceHandler(ambulanceService, tripService),
		Hospital:  handlers.NewHospitalHandler(hospitalService, reservationService),
		Patient:   handlers.NewPatientHandler(patientService),
		WebSocket: websocket.NewHandler(hub),
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting %s on port %d", cfg.App.Name, cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server shutdown failed")
	}

	// Drop this node's presence entries so peers stop relaying to it.
	if err := presenceService.Clear(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Failed to clear presence registry")
	}
}
