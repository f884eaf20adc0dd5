package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Group runs the long-lived parts of a service until ctx is cancelled or one of them fails.
// Every part is stopped within the shutdown timeout once that happens.
type Group struct {
	g               *errgroup.Group
	ctx             context.Context
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func NewGroup(ctx context.Context, shutdownTimeout time.Duration, logger *slog.Logger) *Group {
	g, gCtx := errgroup.WithContext(ctx)
	return &Group{g: g, ctx: gCtx, shutdownTimeout: shutdownTimeout, logger: logger}
}

// HTTP serves srv and shuts it down gracefully.
func (r *Group) HTTP(name string, srv *http.Server) {
	r.g.Go(func() error {
		r.logger.Info("Server listening", "server", name, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server failed: %w", name, err)
		}
		return nil
	})
	r.g.Go(func() error {
		<-r.ctx.Done()
		r.logger.Info("Shutting down server", "server", name)
		ctx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

// GRPC serves srv on port and reports SERVING through hs while it runs.
// A graceful stop that outlives the shutdown timeout is forced.
func (r *Group) GRPC(port string, srv *grpc.Server, hs *health.Server) {
	r.g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+port)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		r.logger.Info("Server listening", "server", "grpc", "addr", lis.Addr().String())
		return srv.Serve(lis)
	})
	r.g.Go(func() error {
		<-r.ctx.Done()
		r.logger.Info("Shutting down server", "server", "grpc")
		hs.Shutdown()
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			return nil
		case <-time.After(r.shutdownTimeout):
			r.logger.Warn("gRPC graceful stop timed out, forcing stop")
			srv.Stop()
			return errors.New("grpc server graceful stop timed out")
		}
	})
}

// Worker runs fn until the group context ends. Cancellation is a clean exit.
func (r *Group) Worker(name string, fn func(ctx context.Context) error) {
	r.g.Go(func() error {
		r.logger.Info("Worker started", "worker", name)
		if err := fn(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("Worker failed", "worker", name, "error", err)
			return fmt.Errorf("%s: %w", name, err)
		}
		r.logger.Info("Worker stopped", "worker", name)
		return nil
	})
}

// Wait blocks until every part has stopped and returns the first real failure.
func (r *Group) Wait() error {
	if err := r.g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
