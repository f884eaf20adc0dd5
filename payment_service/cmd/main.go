package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abgdnv/gomarket/payment_service/internal/app"
	"github.com/abgdnv/gomarket/payment_service/internal/config"
	"github.com/abgdnv/gomarket/payment_service/migrations"
	"github.com/abgdnv/gomarket/pkg/bootstrap"
	"github.com/abgdnv/gomarket/pkg/config/configloader"
	"github.com/abgdnv/gomarket/pkg/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](app.ServiceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, app.ServiceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("Failed to shut down tracer provider", "error", err)
		}
	}()

	if cfg.Database.Migrate {
		if err := bootstrap.RunMigrations(migrations.FS, ".", cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("Database migrations applied")
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create database connection pool: %w", err)
	}
	defer dbPool.Close()
	logger.Info("Successfully connected to the database!")

	deps, err := app.SetupDependencies(ctx, dbPool, cfg, logger)
	if err != nil {
		return err
	}

	group := bootstrap.NewGroup(ctx, cfg.Shutdown.Timeout, logger)
	group.HTTP("http", app.SetupHttpServer(deps, cfg))
	group.GRPC(cfg.GrpcServer.Port, app.SetupGrpcServer(deps, cfg.GrpcServer.ReflectionEnabled), deps.Health)
	if cfg.PProf.Enabled {
		group.HTTP("pprof", &http.Server{Addr: cfg.PProf.Addr, ReadHeaderTimeout: 5 * time.Second})
	}
	return group.Wait()
}
