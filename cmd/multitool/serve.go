package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"multitool/internal/arith"
	"multitool/internal/cache"
	"multitool/internal/cli"
	"multitool/internal/config"
	"multitool/internal/core"
	apphttp "multitool/internal/http"
	applog "multitool/internal/log"
	"multitool/internal/metrics"
	"multitool/internal/qrcode"
	"multitool/internal/services"
)

const cacheSweepInterval = time.Minute

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			logger := cli.SetupLogger(cfg, os.Stdout)

			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()

			return serve(ctx, logger, cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, logger *applog.Logger, cfg *config.Config) error {
	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	m := metrics.New()

	// A disabled broker must reach Events as a nil interface.
	var publisher services.ActivityPublisher
	broker, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Warn("AMQP unavailable, activity events will be skipped", "error", err)
	} else if broker != nil {
		defer broker.Close()
		publisher = broker
	}
	events := services.NewEvents(publisher, m)

	paramCache := cache.NewLRUCache[core.TaxYearParameters](cfg.CacheSize, cfg.CacheTTL)
	historyCache := cache.NewLRUCache[[]string](cfg.CacheSize, cfg.SessionTTL)
	imageCache := cache.NewLRUCache[qrcode.Image](cfg.CacheSize, cfg.CacheTTL)

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	caches.Register(paramCache)
	caches.Register(historyCache)
	caches.Register(imageCache)

	qr, err := qrcode.NewClient(cfg.QRAPIBase, cfg.QRSize, qrcode.WithCache(imageCache))
	if err != nil {
		return fmt.Errorf("qr client: %w", err)
	}

	calc := services.NewCalculationService(repo, paramCache, m, logger.WithComponent(applog.ComponentCalc).Slog())
	auth := services.NewAuthService(repo, events, cfg.SessionTTL)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		TrustedProxies:     cfg.TrustedProxies,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		DB:        repo,
		Auth:      auth,
		Params:    services.NewTaxParameterService(repo, events, calc),
		Calc:      calc,
		Reminders: services.NewReminderService(repo, events),
		Activity:  services.NewActivityService(repo),
		QR:        qr,
		History:   arith.NewHistory(historyCache, arith.DefaultHistorySize),
		Metrics:   m,
		Logger:    logger.WithComponent(applog.ComponentHTTP),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	janitor := services.NewSessionJanitor(auth, cfg.SessionPurgeInterval, m)
	if err := janitor.Start(ctx); err != nil {
		return fmt.Errorf("start session janitor: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "addr", srv.Addr, "amqp", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return caches.Run(gctx, cacheSweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := janitor.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop session janitor: %w", err))
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		return err
	}
	logger.Info("Server exited")
	return nil
}
