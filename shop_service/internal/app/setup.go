// Package app wires the shop service together.
package app

import (
	"log/slog"
	"net/http"

	pkgconfig "github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/pkg/messaging"
	pkgmetrics "github.com/abgdnv/gomarket/pkg/metrics"
	pnats "github.com/abgdnv/gomarket/pkg/nats"
	"github.com/abgdnv/gomarket/pkg/server"
	"github.com/abgdnv/gomarket/shop_service/internal/balance"
	"github.com/abgdnv/gomarket/shop_service/internal/cache"
	"github.com/abgdnv/gomarket/shop_service/internal/checkout"
	"github.com/abgdnv/gomarket/shop_service/internal/config"
	"github.com/abgdnv/gomarket/shop_service/internal/lease"
	"github.com/abgdnv/gomarket/shop_service/internal/metrics"
	"github.com/abgdnv/gomarket/shop_service/internal/reclear"
	"github.com/abgdnv/gomarket/shop_service/internal/service"
	"github.com/abgdnv/gomarket/shop_service/internal/store"
	"github.com/abgdnv/gomarket/shop_service/internal/transport/rest"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

const ServiceName = "shop"

type Dependencies struct {
	CartService   service.CartService
	ItemService   service.ItemService
	OrderService  service.OrderService
	Checkout      checkout.Checkouter
	Balance       service.BalanceReader
	Registry      *prometheus.Registry
	Health        *health.Server
	LocalReclear  *reclear.LocalScheduler
	ReclearWorker *reclear.Worker // nil when messaging is disabled
	Logger        *slog.Logger
}

// SetupDependencies builds the services. js may be nil, in which case events are dropped
// and failed cart clears are retried in process.
func SetupDependencies(dbPool *pgxpool.Pool, redisClient redis.UniversalClient, js jetstream.JetStream, cfg *config.Config, logger *slog.Logger) *Dependencies {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	base := store.NewPgStore(dbPool)
	cartStore := store.NewCartStore(base)
	orderStore := store.NewOrderStore(base)
	views := cache.NewRedisCartViewCache(redisClient, cfg.Cache)

	var locker lease.Locker
	if cfg.Lease.Backend == pkgconfig.LeaseBackendRedis {
		locker = lease.NewRedisLocker(redisClient, cfg.Lease.TTL, cfg.Lease.Wait)
	} else {
		locker = lease.NewLocalLocker(cfg.Lease.Wait)
	}

	balanceClient := balance.NewClient(cfg.Services.Payment, cfg.Resilience.CircuitBreaker, logger)
	carts := service.NewCart(cartStore, views, locker, balanceClient, m, logger)

	var publisher messaging.Publisher = messaging.NopPublisher{}
	localReclear := reclear.NewLocalScheduler(carts, cfg.Reclear, m, logger)
	var scheduler reclear.Scheduler = localReclear
	var worker *reclear.Worker
	if js != nil {
		publisher = pnats.NewNatsPublisher(js)
		scheduler = reclear.NewNatsScheduler(publisher, localReclear, logger)
		worker = reclear.NewWorker(js, cfg.Subscriber, cfg.Reclear, carts, m, logger)
	}

	orchestrator := checkout.NewOrchestrator(checkout.Deps{
		Locker:    locker,
		Carts:     cartStore,
		Orders:    orderStore,
		Views:     views,
		Payments:  balanceClient,
		Reclear:   scheduler,
		Publisher: publisher,
		Metrics:   m,
	}, checkout.Timeouts{Drain: cfg.Checkout.DrainTimeout, AfterDebit: cfg.Checkout.AfterDebitTimeout}, logger)

	return &Dependencies{
		CartService:   carts,
		ItemService:   service.NewItems(store.NewCatalogStore(base), cartStore, cache.NewRedisItemCache(redisClient, cfg.Cache), m, logger),
		OrderService:  service.NewOrders(orderStore),
		Checkout:      orchestrator,
		Balance:       balanceClient,
		Registry:      registry,
		Health:        health.NewServer(),
		LocalReclear:  localReclear,
		ReclearWorker: worker,
		Logger:        logger,
	}
}

// SetupHttpHandler initializes the router with middleware and the shop's routes.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger, ServiceName)
	mux.Use(pkgmetrics.NewServerMetrics(deps.Registry, ServiceName).Middleware)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the shop application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(rest.Services{
		Carts:    deps.CartService,
		Items:    deps.ItemService,
		Orders:   deps.OrderService,
		Checkout: deps.Checkout,
		Balance:  deps.Balance,
	}, deps.Logger)
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", pkgmetrics.Handler(deps.Registry))
}

// SetupHttpServer creates and configures an HTTP server for the shop application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer exposes the standard gRPC health service for the shop.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, server.HealthRegistration(deps.Health))
}
