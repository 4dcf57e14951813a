// Command multitool-worker consumes activity events from AMQP and records
// them in SQLite for the activity feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"multitool/internal/cli"
	applog "multitool/internal/log"
	"multitool/internal/metrics"
	"multitool/internal/services"
	"multitool/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := cli.LoadEnvFile(); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, os.Stdout).WithComponent(applog.ComponentWorker)

	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is required for the worker")
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	client, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	m := metrics.New()
	w := worker.NewActivityWorker(services.NewActivityService(repo), m, logger.Slog())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.Run(gctx, client, cfg.WorkerPrefetch); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("activity worker: %w", err)
		}
		return nil
	})
	if cfg.WorkerMetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, logger, cfg.WorkerMetricsAddr, m, cfg.ShutdownTimeout)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Worker exited")
	return nil
}

// serveMetrics exposes /metrics until ctx ends.
func serveMetrics(ctx context.Context, logger *applog.Logger, addr string, m *metrics.Metrics, timeout time.Duration) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving worker metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics listener: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
