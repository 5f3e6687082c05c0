// Command watcher runs campaign briefs as they appear in the briefs
// directory and serves Prometheus metrics.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/brandgate/creative-automation/internal/bootstrap"
	"github.com/brandgate/creative-automation/internal/config"
	"github.com/brandgate/creative-automation/internal/metrics"
	"github.com/brandgate/creative-automation/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	deps, err := bootstrap.Initialize(cfg)
	if err != nil {
		log.Fatalf("initialization error: %v", err)
	}
	defer deps.Close()
	logger := deps.Logger
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.EINVAL) {
			log.Printf("failed to sync logger: %v", syncErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Register(registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	metricsServer := &http.Server{
		Addr:              net.JoinHostPort("", cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	watcher, err := watch.New(logger, deps.Pipeline, cfg.BriefsDir, cfg.WatchCron)
	if err != nil {
		logger.Fatal("creating brief watcher", zap.Error(err))
	}
	if err := watcher.Start(ctx); err != nil {
		logger.Fatal("starting brief watcher", zap.Error(err))
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown", zap.Error(err))
	}
	if err := watcher.Stop(); err != nil {
		logger.Warn("stopping watcher", zap.Error(err))
	}
	logger.Info("watcher shut down")
}
