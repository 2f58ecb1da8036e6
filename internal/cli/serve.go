package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/coastwatch/internal/httpapi"
	"github.com/ppiankov/coastwatch/internal/observability"
	"github.com/ppiankov/coastwatch/internal/pipeline"
	"github.com/ppiankov/coastwatch/internal/store"
	"github.com/ppiankov/coastwatch/internal/worker"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background report processor",
	Long: `Serve accepts reports over HTTP, stores them and scores each one in the
background. It also serves clustering and hotspot detection on demand.

Endpoints:
  POST /v1/reports        submit a report
  GET  /v1/reports/{id}   fetch a report with its correlations
  POST /v1/clusters       cluster the posted reports
  POST /v1/hotspots       detect hotspots in the posted posts
  GET  /healthz, /readyz, /metrics

When redis.url is set, report processing is serialized across instances
with a Redis lock.

Example:
  coastwatch serve
  coastwatch serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetricsWithRegistry(registry)

	a, err := newApp(metrics)
	if err != nil {
		return err
	}
	cfg := a.cfg

	reports := store.NewMemory()
	processor := pipeline.NewProcessor(reports, a.scorer(),
		pipeline.WithClock(a.clock),
		pipeline.WithLogger(a.logger),
	)

	queueOpts := []worker.QueueOption{
		worker.WithLockTTL(cfg.Worker.LockTTL),
		worker.WithQueueMetrics(metrics),
		worker.WithQueueLogger(a.logger),
	}
	serverOpts := []httpapi.Option{
		httpapi.WithAnalyzer(a.analyzer()),
		httpapi.WithVerifier(a.verifier()),
		httpapi.WithDefaults(cfg.Clustering.RadiusKm, cfg.Hotspots.PostThreshold),
		httpapi.WithGatherer(registry),
		httpapi.WithMetrics(metrics),
		httpapi.WithClock(a.clock),
		httpapi.WithLogger(a.logger),
	}
	if cfg.Redis.URL != "" {
		locker, err := worker.NewRedisLocker(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = locker.Close() }()
		queueOpts = append(queueOpts, worker.WithLocker(locker))
		serverOpts = append(serverOpts, httpapi.WithReadinessCheck("redis", locker.Ping))
		a.logger.Info("using redis report lock")
	}

	queue := worker.NewQueue(processor, cfg.Worker.Workers, cfg.Worker.QueueSize, queueOpts...)
	queue.Start()

	server := httpapi.NewServer(reports, queue, serverOpts...)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", cfg.Server.Addr, "version", Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	if err := queue.Close(shutdownCtx); err != nil {
		a.logger.Error("queue shutdown", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}
	return nil
}
