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

	"github.com/abgdnv/gomarket/pkg/bootstrap"
	"github.com/abgdnv/gomarket/pkg/config/configloader"
	"github.com/abgdnv/gomarket/pkg/messaging"
	pnats "github.com/abgdnv/gomarket/pkg/nats"
	"github.com/abgdnv/gomarket/pkg/telemetry"
	"github.com/abgdnv/gomarket/shop_service/internal/app"
	"github.com/abgdnv/gomarket/shop_service/internal/config"
	"github.com/abgdnv/gomarket/shop_service/migrations"
	"github.com/nats-io/nats.go/jetstream"
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

// run connects to PostgreSQL, Redis and NATS, then runs the HTTP, gRPC health and pprof servers
// and the cart re-clear worker until ctx is cancelled.
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

	redisClient, err := bootstrap.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()
	logger.Info("Successfully connected to Redis!")

	var js jetstream.JetStream
	if cfg.Nats.Enabled {
		natsConn, err := pnats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
		if err != nil {
			return err
		}
		defer natsConn.Close()
		if js, err = pnats.NewJetStreamContext(natsConn); err != nil {
			return err
		}
		if err := pnats.EnsureStream(ctx, js, cfg.Nats.Stream, messaging.StreamSubjects); err != nil {
			return err
		}
		logger.Info("Successfully connected to NATS!", "stream", cfg.Nats.Stream)
	}

	deps := app.SetupDependencies(dbPool, redisClient, js, cfg, logger)

	group := bootstrap.NewGroup(ctx, cfg.Shutdown.Timeout, logger)
	group.HTTP("http", app.SetupHttpServer(deps, cfg))
	group.GRPC(cfg.GrpcServer.Port, app.SetupGrpcServer(deps, cfg.GrpcServer.ReflectionEnabled), deps.Health)
	if deps.ReclearWorker != nil {
		group.Worker("cart-reclear", deps.ReclearWorker.Start)
	}
	if cfg.PProf.Enabled {
		group.HTTP("pprof", &http.Server{Addr: cfg.PProf.Addr, ReadHeaderTimeout: 5 * time.Second})
	}

	err = group.Wait()
	// In-process re-clears use the store and Redis, so they finish before the pools close.
	deps.LocalReclear.Wait()
	return err
}
