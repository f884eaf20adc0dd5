// Package app wires the payment service together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gomarket/payment_service/internal/config"
	"github.com/abgdnv/gomarket/payment_service/internal/metrics"
	"github.com/abgdnv/gomarket/payment_service/internal/service"
	"github.com/abgdnv/gomarket/payment_service/internal/store"
	"github.com/abgdnv/gomarket/payment_service/internal/transport/rest"
	"github.com/abgdnv/gomarket/pkg/auth"
	pkgmetrics "github.com/abgdnv/gomarket/pkg/metrics"
	"github.com/abgdnv/gomarket/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

const ServiceName = "payment"

// DefaultScope must be granted to callers when token verification is on and idp.scope is empty.
const DefaultScope = "PAYMENT"

type Dependencies struct {
	PaymentService service.PaymentService
	Verifier       auth.Verifier // nil when the IdP is disabled
	Scope          string
	Registry       *prometheus.Registry
	Health         *health.Server
	Logger         *slog.Logger
}

func SetupDependencies(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var verifier auth.Verifier
	if cfg.IdP.Enabled {
		v, err := auth.NewJWTVerifier(ctx, cfg.IdP)
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT verifier: %w", err)
		}
		verifier = v
	}

	scope := cfg.IdP.Scope
	if scope == "" {
		scope = DefaultScope
	}

	provisioning := service.Provisioning{
		Enabled: cfg.Balance.AutoProvision,
		Initial: cfg.Balance.InitialAmount(),
	}

	return &Dependencies{
		PaymentService: service.NewService(store.NewPgStore(dbPool), provisioning, metrics.New(registry), logger),
		Verifier:       verifier,
		Scope:          scope,
		Registry:       registry,
		Health:         health.NewServer(),
		Logger:         logger,
	}, nil
}

// SetupHttpHandler initializes the router with middleware and the payment routes.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger, ServiceName)
	mux.Use(pkgmetrics.NewServerMetrics(deps.Registry, ServiceName).Middleware)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	var guard func(http.Handler) http.Handler
	if deps.Verifier != nil {
		guard = auth.BearerMiddleware(deps.Logger, deps.Verifier, deps.Scope)
	}
	rest.NewHandler(deps.PaymentService, guard, deps.Logger).RegisterRoutes(mux)
	mux.Handle("/metrics", pkgmetrics.Handler(deps.Registry))
}

// SetupHttpServer creates and configures an HTTP server for the payment application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer exposes the standard gRPC health service for the payment application.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, server.HealthRegistration(deps.Health))
}
