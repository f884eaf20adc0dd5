package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPServer builds the service's HTTP server from its listener configuration.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Timeout.Read,
		WriteTimeout:      cfg.Timeout.Write,
		IdleTimeout:       cfg.Timeout.Idle,
		ReadHeaderTimeout: cfg.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// NewChiRouter returns a router that traces each request, tags it with a request id,
// logs it and turns panics into 500 responses. Spans are named "METHOD /path".
func NewChiRouter(logger *slog.Logger, serviceName string) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(otelhttp.NewMiddleware(serviceName, otelhttp.WithSpanNameFormatter(routeSpanName)))
	mux.Use(middleware.CleanPath)
	mux.Use(web.RequestIDInjector)
	mux.Use(web.StructuredLogger(logger))
	mux.Use(web.Recoverer(logger))
	return mux
}

func routeSpanName(_ string, r *http.Request) string {
	return r.Method + " " + r.URL.Path
}
