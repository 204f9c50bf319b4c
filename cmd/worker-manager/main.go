// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lending-workers/internal/common/camunda"
	"lending-workers/internal/common/config"
	apperrors "lending-workers/internal/common/errors"
	"lending-workers/internal/common/logger"
	"lending-workers/internal/common/metrics"
	"lending-workers/internal/common/observability"
	"lending-workers/internal/eligibility"
	"lending-workers/internal/policy"
	ee "lending-workers/internal/workers/lending/evaluate-eligibility"
	"lending-workers/pkg/registry"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewFromOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		bootLog.Fatal("logger setup failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("policySource", cfg.Underwriting.Policy.Source))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			zapLog.Warn("otel shutdown failed", zap.Error(err))
		}
	}()

	// --- Lender policy table ---
	table, err := loadPolicyTable(ctx, cfg)
	if err != nil {
		zapLog.Fatal("policy table load failed", zap.Error(err))
	}
	metrics.PolicyTableLenders.WithLabelValues(cfg.Underwriting.Policy.Source).Set(float64(table.Len()))
	zapLog.Info("Policy table loaded", zap.Int("lenders", table.Len()))

	engine, err := eligibility.NewEngine(table, eligibility.Options{StressRate: cfg.Underwriting.StressRate}, log)
	if err != nil {
		zapLog.Fatal("eligibility engine setup failed", zap.Error(err))
	}

	// --- Zeebe client ---
	zeebe, err := camunda.NewClient(ctx, camunda.ClientConfigFrom(cfg.Camunda))
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully", zap.String("broker", cfg.Camunda.BrokerAddress))

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	if config.IsWorkerEnabled(cfg, ee.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, ee.TaskType)
		activity := findActivity(cfg.Registry.Path, zapLog)

		handlerCfg, err := ee.ConfigFrom(wcfg, activity)
		if err != nil {
			zapLog.Fatal("invalid evaluate-eligibility config", zap.Error(err))
		}
		handler, err := ee.NewHandler(handlerCfg, engine, obs, log)
		if err != nil {
			zapLog.Fatal("failed to create evaluate-eligibility handler", zap.Error(err))
		}

		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), ee.TaskType, handler, camunda.WorkerOptions{
			Name:          cfg.App.Name,
			MaxJobsActive: wcfg.MaxJobsActive,
			// The lease covers the evaluation plus the completion round trip.
			Timeout: handlerCfg.Timeout + config.GetDuration(cfg.Camunda.RequestTimeout),
		}, zapLog))
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", ee.TaskType))
	}

	// --- Health & Metrics Server ---
	status := newStatusServer()
	status.addCheck("policyTable", func(context.Context) error {
		if table.Len() == 0 {
			return policy.ErrEmptyTable
		}
		return nil
	})
	status.addCheck("zeebe", zeebe.HealthCheck)

	srv := &http.Server{
		Addr:              listenAddr(cfg.Server.Port),
		Handler:           status.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// loadPolicyTable loads the table once at startup. The source connection is
// released afterwards since the table is immutable for the process lifetime.
func loadPolicyTable(ctx context.Context, cfg *config.Config) (*policy.Table, error) {
	src, closer, err := policy.OpenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	table, err := policy.LoadPolicies(ctx, src)
	if err != nil {
		return nil, apperrors.NewPolicyLoadFailedError(err).WithMetadata("source", src.Name())
	}
	return table, nil
}

func findActivity(path string, log *zap.Logger) *registry.Activity {
	if path == "" {
		return nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry unavailable, using built-in schema", zap.String("path", path), zap.Error(err))
		return nil
	}
	activity, ok := reg.FindByTaskType(ee.TaskType)
	if !ok {
		log.Warn("task type not in activity registry, using built-in schema", zap.String("taskType", ee.TaskType))
		return nil
	}
	return activity
}
