package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ponziworld/pwclient-go/internal/config"
	"github.com/ponziworld/pwclient-go/internal/domain"
	"github.com/ponziworld/pwclient-go/internal/handler"
	"github.com/ponziworld/pwclient-go/internal/infra/api"
	"github.com/ponziworld/pwclient-go/internal/infra/cache"
	"github.com/ponziworld/pwclient-go/internal/infra/observability"
	"github.com/ponziworld/pwclient-go/internal/infra/registry"
	"github.com/ponziworld/pwclient-go/internal/infra/resilience"
	"github.com/ponziworld/pwclient-go/internal/service"
	"github.com/ponziworld/pwclient-go/internal/session"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("ops_port", cfg.OpsPort),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_url", cfg.BackendURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("history_cache_ttl", cfg.HistoryCacheTTL),
		zap.Int("max_concurrent_fetches", cfg.MaxConcurrentFetches),
		zap.Duration("poll_interval", cfg.PollInterval),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "pwclient")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Session & backend client ---
	sess := session.New()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	cb := resilience.NewCircuitBreaker("ponziworld-backend")
	backend := api.NewClient(httpClient, cfg.BackendURL, sess, cb, metrics, logger)

	// --- Login ---
	ctx := context.Background()
	if cfg.Username == "" || cfg.Password == "" {
		logger.Fatal("PW_USERNAME and PW_PASSWORD must be set")
	}
	token, err := backend.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		logger.Fatal("login failed", zap.Error(err))
	}
	if err := sess.SetToken(token); err != nil {
		logger.Fatal("backend issued an unparseable token", zap.Error(err))
	}
	logger.Info("logged in",
		zap.String("username", sess.Username()),
		zap.Time("expires_at", sess.ExpiresAt()),
	)

	// --- Resolve bank ---
	bankID := cfg.BankID
	if bankID == "" {
		bank, err := backend.GetBank(ctx)
		if err != nil {
			logger.Fatal("failed to resolve own bank", zap.Error(err))
		}
		bankID = bank.ID
	}
	logger.Info("bank resolved", zap.String("bank_id", bankID))

	// --- Engine ---
	rec := service.NewReconciler(
		backend,
		service.NewPortfolioSnapshot(),
		registry.New(metrics, logger),
		resilience.NewBulkhead(cfg.MaxConcurrentFetches),
		cache.New[[]domain.HistoricalPerformanceEntry](cfg.HistoryCacheTTL),
		metrics,
		logger,
		bankID,
	)
	status := service.NewStatusSignal()
	flow := service.NewTransactionFlow(backend, rec, status, metrics, logger)

	// --- Initial reconciliation ---
	if err := rec.Reconcile(ctx); err != nil {
		logger.Fatal("initial reconciliation failed", zap.Error(err))
	}
	if err := rec.RefreshAllDetails(ctx); err != nil {
		logger.Error("initial detail fetch incomplete", zap.Error(err))
	}

	// --- Background polling (optional) ---
	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	if cfg.PollInterval > 0 {
		go pollLoop(pollCtx, rec, cfg.PollInterval, logger)
	}

	// --- Ops server ---
	router := handler.NewRouter(rec, flow, status, sess, metrics, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.OpsPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("ops server starting", zap.Int("port", cfg.OpsPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ops server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	stopPolling()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("ops server forced shutdown", zap.Error(err))
	}

	logger.Info("stopped")
}

// pollLoop re-reconciles on a fixed interval so the engine tracks backend
// days that advance without a local submission.
func pollLoop(ctx context.Context, rec *service.Reconciler, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rec.Reconcile(ctx); err != nil {
				logger.Warn("background reconcile failed", zap.Error(err))
				continue
			}
			if err := rec.RefreshAllDetails(ctx); err != nil {
				logger.Warn("background detail refresh incomplete", zap.Error(err))
			}
		}
	}
}
