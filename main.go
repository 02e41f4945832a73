package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/crucible-ai/crucible/internal/config"
	"github.com/crucible-ai/crucible/internal/health"
	"github.com/crucible-ai/crucible/internal/httpapi"
	"github.com/crucible-ai/crucible/internal/llm"
	"github.com/crucible-ai/crucible/internal/store"
	"github.com/crucible-ai/crucible/internal/tracing"
	"github.com/crucible-ai/crucible/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := tracing.Initialize(cfg.Tracing, logger); err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	st, err := newStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer func() { _ = st.Close() }()
	records := store.NewRecords(st)

	roster, err := llm.LoadRoster(cfg.AgentsPath)
	if err != nil {
		logger.Fatal("Failed to load agent roster", zap.Error(err))
	}
	caller, err := llm.NewHTTPCaller(roster, logger)
	if err != nil {
		logger.Fatal("Failed to initialize model caller", zap.Error(err))
	}

	orchestrator := workflow.New(records, caller, logger, cfg.Workflow.MaxIterations)

	manager := health.NewManager(logger)
	manager.Register(health.NewStoreChecker(st, cfg.Store.Backend))
	manager.Register(health.NewAgentChecker(caller))

	apiHandler := httpapi.NewHandler(records, orchestrator, caller, logger)
	apiServer := httpapi.NewServer(cfg.Server, cfg.RateLimit, apiHandler, manager, logger)

	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsMux(),
	}
	go func() {
		logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", zap.Error(err))
	}
	_ = metricsServer.Shutdown(shutdownCtx)

	// In-flight workflows finish against the live store; bound the wait so
	// a stuck model call cannot hold the process open.
	done := make(chan struct{})
	go func() {
		orchestrator.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("All workflows drained")
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout with workflows still in flight")
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

func newStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "redis", "":
		return store.NewRedisStore(store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			TTL:      cfg.StoreTTL(),
		}, logger)
	case "sql":
		return store.NewSQLStore(store.SQLConfig{
			Driver: cfg.Store.SQL.Driver,
			DSN:    cfg.Store.SQL.DSN,
			TTL:    cfg.StoreTTL(),
		}, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
