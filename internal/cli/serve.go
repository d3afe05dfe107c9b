package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tracks/internal/config"
	"github.com/aretw0/tracks/internal/logging"
	"github.com/aretw0/tracks/internal/runtime"
	httpAdapter "github.com/aretw0/tracks/pkg/adapters/http"
	"github.com/aretw0/tracks/pkg/adapters/mcp"
	"github.com/aretw0/tracks/pkg/adapters/memory"
	"github.com/aretw0/tracks/pkg/adapters/redis"
	"github.com/aretw0/tracks/pkg/observability"
	"github.com/aretw0/tracks/pkg/ports"
	"github.com/aretw0/tracks/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services is the wired server stack.
type Services struct {
	Manager *session.Manager
	Handler http.Handler
	Metrics *observability.Metrics
	close   func() error
}

// Close releases the store connection, if any.
func (s *Services) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewServices wires the session store, metrics and HTTP handler described by cfg.
// A configured Redis address selects the Redis store and distributed locking,
// otherwise sessions live in memory.
func NewServices(cfg config.Config, logger *slog.Logger) (*Services, error) {
	svc := &Services{}

	var store ports.SnapshotStore
	managerOpts := []session.Option{
		session.WithLogger(logger),
		session.WithMaxCanvas(cfg.Limits.MaxCanvas),
	}

	if cfg.Redis.Addr != "" {
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(prefix),
			redis.WithTTL(cfg.Redis.TTL.Duration),
		)
		store = rs
		svc.close = rs.Close
		managerOpts = append(managerOpts, session.WithLocker(redis.NewLocker(rs.Client(), prefix)))
		logger.Info("Using Redis session store", "addr", cfg.Redis.Addr, "prefix", prefix)
	} else {
		store = memory.NewStore()
		logger.Info("Using in-memory session store")
	}

	hooks := observability.LogHooks(logger)
	var handlerOpts []httpAdapter.Option
	if cfg.Server.Metrics {
		svc.Metrics = observability.NewMetrics()
		reg := prometheus.NewRegistry()
		if err := svc.Metrics.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		hooks = observability.MergeHooks(hooks, svc.Metrics.Hooks())
		handlerOpts = append(handlerOpts,
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	turtleOpts := []runtime.Option{
		runtime.WithLogger(logger),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithMaxSteps(cfg.Limits.MaxSteps),
	}
	managerOpts = append(managerOpts, session.WithTurtleOptions(turtleOpts...))
	svc.Manager = session.NewManager(store, managerOpts...)

	handlerOpts = append(handlerOpts,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMaxProgramSize(cfg.Limits.MaxProgramSize),
		httpAdapter.WithMaxCanvas(cfg.Limits.MaxCanvas),
		httpAdapter.WithTurtleOptions(turtleOpts...),
	)
	svc.Handler = httpAdapter.NewHandler(svc.Manager, handlerOpts...)
	return svc, nil
}

// Serve runs the HTTP API until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(logging.ParseLevel(cfg.Log.Level))

	svc, err := NewServices(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close session store", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           svc.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting Tracks Server", "addr", srv.Addr, "metrics", cfg.Server.Metrics)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Start shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "error", err)
			return srv.Close()
		}
		logger.Info("Tracks Server stopped gracefully")
		return nil
	}
}

// ServeMCP runs the MCP server over the given transport ("stdio" or "sse").
func ServeMCP(ctx context.Context, cfg config.Config, transport string, port int) error {
	// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
	logger := logging.New(logging.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger)

	srv := mcp.NewServer(
		mcp.WithMaxProgramSize(cfg.Limits.MaxProgramSize),
		mcp.WithMaxCanvas(cfg.Limits.MaxCanvas),
		mcp.WithTurtleOptions(runtime.WithLogger(logger), runtime.WithMaxSteps(cfg.Limits.MaxSteps)),
	)

	switch transport {
	case "stdio":
		logger.Info("Starting Tracks MCP Server (Stdio)...")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting Tracks MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}
}
