package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"hearth/internal/allocation"
	"hearth/internal/config"
	"hearth/internal/database"
	"hearth/internal/events"
	"hearth/internal/logger"
	"hearth/internal/middleware"
	"hearth/internal/server"
	"hearth/internal/validator"
)

// @title           Hearth API
// @version         1.0
// @description     Hearth splits a household budget into needs, wants and savings and tracks spending against each bucket.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(appConfig.Env, appConfig.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("Failed to close database", "error", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := []events.Sink{events.NewLogSink()}
	if appConfig.AMQPURL != "" {
		amqpSink, err := events.NewAMQPSink(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPRoutingKey)
		if err != nil {
			return fmt.Errorf("failed to connect event broker: %w", err)
		}
		defer amqpSink.Close()
		sinks = append(sinks, amqpSink)
		log.Infow("Publishing events to AMQP", "exchange", appConfig.AMQPExchange)
	}
	dispatcher := events.NewDispatcher(appConfig.EventBufferSize, sinks...)
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	rateLimiter, err := middleware.NewLimiter(appConfig.RateLimit)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	db := dbManager.DB()
	router := server.NewRouter(server.Deps{
		DB: db,
		Services: server.NewServices(db, server.ServiceDeps{
			BucketTable: allocation.LegacyBucketTable,
			Publisher:   dispatcher,
		}),
		Tokens:      middleware.NewTokenIssuer(appConfig.JWTSecret, appConfig.JWTExpirationDur),
		Limiter:     rateLimiter,
		CORSOrigins: appConfig.CORSOrigins,
		OpsAPIKey:   appConfig.OpsAPIKey,
		Swagger:     !appConfig.IsProduction(),
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting Hearth server on port %s", appConfig.Port)
		if !appConfig.IsProduction() {
			log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
