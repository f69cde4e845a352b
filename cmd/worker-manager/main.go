// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tradehub/internal/bootstrap"
	"tradehub/internal/common/camunda"
	"tradehub/internal/common/config"
	"tradehub/internal/common/logger"
	"tradehub/internal/common/observability"

	sn "tradehub/internal/workers/communication/send-notification"
	vs "tradehub/internal/workers/infrastructure/validate-subscription"
	cbm "tradehub/internal/workers/matchmaking/calculate-buyer-matches"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	obs, err := observability.New("worker-manager")
	if err != nil {
		zapLog.Warn("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zeebeClient, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebeClient.Close()
	zapLog.Info("Zeebe client connected successfully")

	infra, err := bootstrap.Connect(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("infrastructure init failed", zap.Error(err))
	}
	defer infra.Close()

	stores := bootstrap.NewStores(infra)

	var workers []*camunda.Worker
	start := func(taskType string, handler camunda.JobHandler) {
		workers = append(workers, camunda.StartWorker(zeebeClient, taskType, config.GetWorkerConfig(cfg, taskType), handler, log))
	}

	if config.IsWorkerEnabled(cfg, cbm.TaskType) {
		engine := bootstrap.NewMatchEngine(cfg, infra, stores, log)
		start(cbm.TaskType, cbm.NewHandler(cbm.LoadConfig(config.GetWorkerConfig(cfg, cbm.TaskType)), engine, log))
	}

	if config.IsWorkerEnabled(cfg, vs.TaskType) {
		validator := bootstrap.NewSubscriptionValidator(cfg, infra, stores, log)
		start(vs.TaskType, vs.NewHandler(vs.LoadConfig(config.GetWorkerConfig(cfg, vs.TaskType)), validator, log))
	}

	if config.IsWorkerEnabled(cfg, sn.TaskType) {
		notifier := bootstrap.NewNotifier(ctx, cfg, stores, log)
		start(sn.TaskType, sn.NewHandler(sn.LoadConfig(config.GetWorkerConfig(cfg, sn.TaskType)), notifier, log))
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"workers": len(workers),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ready", http.StatusOK
		if err := infra.Postgres.Ping(pingCtx); err != nil {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.Handle("/metrics", promhttp.Handler())

	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Camunda.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Stop()
		zapLog.Info("worker stopped", zap.String("taskType", w.TaskType()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("health server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped")
}
