package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cuemby/arachne/pkg/config"
	"github.com/cuemby/arachne/pkg/handler"
	"github.com/cuemby/arachne/pkg/handler/fshandler"
	"github.com/cuemby/arachne/pkg/handler/ftphandler"
	"github.com/cuemby/arachne/pkg/log"
	"github.com/cuemby/arachne/pkg/metrics"
	"github.com/cuemby/arachne/pkg/scheduler"
	"github.com/cuemby/arachne/pkg/store"
	"github.com/cuemby/arachne/pkg/worker"
	"github.com/spf13/cobra"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the scheduler and worker pool in the foreground",
	Long: `crawl opens the durable task store, loads the site table, and runs the
worker pool until interrupted. It is the only long-running command in
arachne; daemonization (service supervision, restart policy) is left to
the operator's process manager, per the core's explicit non-goals.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().String("data-dir", "./data", "Directory holding the durable task store")
	crawlCmd.Flags().String("config", "./sites.yaml", "Site table YAML file")
	crawlCmd.Flags().Int("concurrency", 4, "Number of concurrent worker goroutines")
	crawlCmd.Flags().Duration("poll-interval", 2*time.Second, "Worker sleep after an empty queue before retrying")
	crawlCmd.Flags().Duration("handler-timeout", 30*time.Second, "Per-task handler execution timeout")
	crawlCmd.Flags().String("metrics-addr", ":9090", "Listen address for the /metrics HTTP endpoint")
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	configPath, _ := cmd.Flags().GetString("config")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
	handlerTimeout, _ := cmd.Flags().GetDuration("handler-timeout")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	logger := log.WithComponent("cmd")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("crawl: create data dir: %w", err)
	}
	st, err := store.Open(filepath.Join(dataDir, "arachne.db"))
	if err != nil {
		return fmt.Errorf("crawl: open store: %w", err)
	}
	defer st.Close()

	table := config.NewTable()
	sched := scheduler.New(st, table)

	watcher, err := config.NewWatcher(configPath, table, sched)
	if err != nil {
		return fmt.Errorf("crawl: create config watcher: %w", err)
	}
	if err := watcher.Reconcile(); err != nil {
		return fmt.Errorf("crawl: initial site reconciliation: %w", err)
	}
	watcher.Start()
	defer watcher.Close()

	registry := handler.NewRegistry()
	registry.Register(fshandler.New())
	registry.Register(ftphandler.New())

	pool := worker.NewPool(sched, registry, worker.Config{
		Concurrency:    concurrency,
		PollInterval:   pollInterval,
		HandlerTimeout: handlerTimeout,
	})
	pool.Start()
	defer pool.Stop()

	collector := metrics.NewCollector(sched.Len, table.Len, 5*time.Second)
	collector.Start()
	defer collector.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsSrv.Shutdown(ctx)
	}()

	logger.Info().
		Str("data_dir", dataDir).
		Str("config", configPath).
		Int("concurrency", concurrency).
		Str("metrics_addr", metricsAddr).
		Msg("arachne crawl started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	return nil
}
