package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"orcamento/internal/cache"
	"orcamento/internal/cli"
	apphttp "orcamento/internal/http"
	applog "orcamento/internal/log"
	"orcamento/internal/services"
	"orcamento/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var refreshPerMinute int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and watch the source for changes",
		Long: `Serve the dashboard over HTTP. A background watcher fingerprints the
source every POLL_INTERVAL and reloads it when the content changed.

Snapshot history is kept when SQLITE_DB_PATH is set and refresh events are
published when AMQP_URL is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), refreshPerMinute)
		},
	}

	cmd.Flags().IntVar(&refreshPerMinute, "refresh-per-minute", 10, "forced reloads allowed per client and minute")
	return cmd
}

func runServe(ctx context.Context, refreshPerMinute int) error {
	ctx, stop := cli.SignalContext(ctx)
	defer stop()

	cfg, logger, be, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer be.Cleanup()

	opts := dashboardOptions(cfg)
	summaries := cache.NewLRUCache[services.Summary](opts.CacheSize, opts.CacheTTL)
	manager := cache.NewManager()
	manager.Register(summaries)
	manager.StartCleanup(ctx, cfg.CacheTTL)
	defer manager.Stop()

	svcOpts := []services.Option{services.WithCache(summaries)}

	history, err := cli.InitHistory(cfg)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
		svcOpts = append(svcOpts, services.WithHistory(history))
		logger.Info("Snapshot history enabled", "path", cfg.SQLiteDBPath)
	}

	// The dashboard works without the broker, so a failed connection only
	// disables events.
	events, err := cli.InitEvents(ctx, cfg)
	if err != nil {
		logger.Warn("Refresh events disabled", "error", err)
	} else if events != nil {
		defer events.Close()
		svcOpts = append(svcOpts, services.WithEvents(events))
		logger.Info("Refresh events enabled", "exchange", cfg.AMQPExchange)
	}

	dash := services.NewDashboardService(be.Source, opts, svcOpts...)

	srv, err := apphttp.NewServer(apphttp.ServerConfig{
		Addr:             ":" + cfg.Port,
		Title:            cfg.DashboardTitle,
		PollInterval:     cfg.PollInterval,
		RefreshPerMinute: refreshPerMinute,
		Logger:           logger,
	}, dash)
	if err != nil {
		return err
	}

	watcher := worker.NewWatcher(dash, worker.WatcherConfig{PollInterval: cfg.PollInterval})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting painel server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"source", dash.Source())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return watcher.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		werr := watcher.Stop(shutdownCtx)
		serr := srv.Shutdown(shutdownCtx)
		return errors.Join(werr, serr)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
