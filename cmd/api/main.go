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

	"valuator/internal/cache"
	"valuator/internal/config"
	"valuator/internal/database"
	"valuator/internal/logger"
	"valuator/internal/metrics"
	"valuator/internal/scheduler"
	"valuator/internal/server"
	"valuator/internal/services"
	"valuator/internal/validator"

	_ "valuator/internal/docs" // Import swagger docs
)

// @title           Valuator API
// @version         1.0
// @description     Valuator reconstructs the cost-basis history, allocation and risk profile of investment portfolios from their transaction ledgers.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var valuationCache cache.Cache
	if appConfig.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		valuationCache = cache.NewRedisCache(client, appConfig.CacheTTL)
		log.Infow("Valuation cache backed by redis", "addr", appConfig.RedisAddr)
	} else {
		valuationCache = cache.NewMemoryCache(appConfig.CacheTTL)
		log.Info("Valuation cache held in memory")
	}

	m := metrics.New()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	portfolioService := services.NewPortfolioService(db, valuationCache)
	transactionService := services.NewTransactionService(db, portfolioService, valuationCache)
	valuationService := services.NewValuationService(db, portfolioService, valuationCache, m, services.ValuationOptions{
		StrictOversell: appConfig.StrictOversell,
	})
	snapshotService := services.NewPortfolioSnapshotService(db, portfolioService, m)

	router := server.NewRouter(server.Services{
		Users:        userService,
		Portfolios:   portfolioService,
		Transactions: transactionService,
		Valuations:   valuationService,
		Snapshots:    snapshotService,
	}, server.Options{
		PipelineAPIKey: appConfig.PipelineAPIKey,
		Metrics:        m,
		Swagger:        true,
		HealthCheck: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
	})

	if appConfig.SnapshotCron != "" {
		sched, err := scheduler.New()
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		err = sched.AddCronJob("portfolio-snapshots", func(context.Context) error {
			_, err := snapshotService.ComputeAndRecordSnapshots(time.Now())
			return err
		}, appConfig.SnapshotCron, false)
		if err != nil {
			return fmt.Errorf("failed to schedule snapshots: %w", err)
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				log.Warnw("Scheduler shutdown failed", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Valuator server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
