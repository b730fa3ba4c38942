package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ponziworld/pwclient-go/internal/domain"
	"github.com/ponziworld/pwclient-go/internal/infra/cache"
	"github.com/ponziworld/pwclient-go/internal/infra/observability"
	"github.com/ponziworld/pwclient-go/internal/infra/registry"
	"github.com/ponziworld/pwclient-go/internal/infra/resilience"
	"github.com/ponziworld/pwclient-go/internal/port"
)

var recTracer = otel.Tracer("service/reconciler")

// Reconciler owns the canonical in-memory copies of the bank aggregate and
// the per-asset investment details for the lifetime of a dashboard, and
// drives reconciliation: re-fetching authoritative state after a mutation
// and invalidating every dependent view.
type Reconciler struct {
	api      port.BankAPI
	snapshot *PortfolioSnapshot
	registry *registry.Registry
	bulkhead *resilience.Bulkhead
	history  *cache.InMemory[[]domain.HistoricalPerformanceEntry]
	metrics  *observability.Metrics
	logger   *zap.Logger

	bankID string
	epoch  atomic.Uint64

	mu   sync.RWMutex
	bank *domain.Bank
}

// NewReconciler creates a reconciler for one bank's dashboard.
func NewReconciler(
	api port.BankAPI,
	snapshot *PortfolioSnapshot,
	reg *registry.Registry,
	bulkhead *resilience.Bulkhead,
	history *cache.InMemory[[]domain.HistoricalPerformanceEntry],
	metrics *observability.Metrics,
	logger *zap.Logger,
	bankID string,
) *Reconciler {
	return &Reconciler{
		api:      api,
		snapshot: snapshot,
		registry: reg,
		bulkhead: bulkhead,
		history:  history,
		metrics:  metrics,
		logger:   logger,
		bankID:   bankID,
	}
}

// Snapshot returns the portfolio snapshot this reconciler populates.
func (r *Reconciler) Snapshot() *PortfolioSnapshot {
	return r.snapshot
}

// Registry returns the refresh registry views subscribe to.
func (r *Reconciler) Registry() *registry.Registry {
	return r.registry
}

// BankID returns the bank this dashboard belongs to.
func (r *Reconciler) BankID() string {
	return r.bankID
}

// Epoch returns the current data epoch. Each reconciliation cycle bumps it;
// data tagged with an older epoch is stale.
func (r *Reconciler) Epoch() uint64 {
	return r.epoch.Load()
}

// Bank returns the last fetched bank aggregate, nil before the first fetch.
func (r *Reconciler) Bank() *domain.Bank {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bank
}

// RefreshBank fetches the bank aggregate and stores it wholesale. The
// availableAssets partition (invested vs available) always comes from this
// fetch, never from client-side bookkeeping.
func (r *Reconciler) RefreshBank(ctx context.Context) error {
	ctx, span := recTracer.Start(ctx, "Reconciler.RefreshBank")
	defer span.End()

	bank, err := r.api.GetBank(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.bank = bank
	r.mu.Unlock()
	return nil
}

// Reconcile runs one full reconciliation cycle: bump the data epoch, purge
// the within-cycle history cache, refresh the bank aggregate to completion,
// and only then fire the registered per-asset refresh callbacks. The
// ordering matters — a newly fully-sold asset must land in the right list
// before detail views re-fetch.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	ctx, span := recTracer.Start(ctx, "Reconciler.Reconcile")
	defer span.End()

	epoch := r.epoch.Add(1)
	span.SetAttributes(attribute.Int64("epoch", int64(epoch)))
	r.history.Purge()

	if err := r.RefreshBank(ctx); err != nil {
		r.logger.Error("reconcile: bank refresh failed",
			zap.Uint64("epoch", epoch),
			zap.Error(err),
		)
		return err
	}

	r.registry.InvalidateAll()
	r.metrics.IncrReconcileCycle()

	r.logger.Debug("reconcile cycle complete",
		zap.Uint64("epoch", epoch),
		zap.Int("subscriptions", r.registry.Len()),
	)
	return nil
}

// FetchInvestmentDetail fetches one asset's detail and installs it in the
// snapshot, tagged with the current epoch. Concurrent fetches for different
// assets are fine — each writes only its own entry — but the bulkhead caps
// how many run at once.
func (r *Reconciler) FetchInvestmentDetail(ctx context.Context, assetID string) (*domain.InvestmentDetail, error) {
	ctx, span := recTracer.Start(ctx, "Reconciler.FetchInvestmentDetail")
	defer span.End()
	span.SetAttributes(attribute.String("asset.id", assetID))

	if err := r.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer r.bulkhead.Release()

	detail, err := r.api.GetInvestmentDetail(ctx, assetID, r.bankID)
	if err != nil {
		return nil, err
	}

	detail.Epoch = r.epoch.Load()
	r.snapshot.Set(detail)
	return detail, nil
}

// RefreshAllDetails fan-outs a detail fetch for every asset the bank lists,
// bounded by the bulkhead. Used on dashboard load and after a day advance.
func (r *Reconciler) RefreshAllDetails(ctx context.Context) error {
	ctx, span := recTracer.Start(ctx, "Reconciler.RefreshAllDetails")
	defer span.End()

	bank := r.Bank()
	if bank == nil {
		return fmt.Errorf("refresh details: bank aggregate not fetched yet")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, ref := range bank.AvailableAssets {
		ref := ref
		g.Go(func() error {
			_, err := r.FetchInvestmentDetail(ctx, ref.AssetID)
			return err
		})
	}
	return g.Wait()
}

// AssetHistory returns the per-day series for an asset, cached for the
// duration of the current epoch.
func (r *Reconciler) AssetHistory(ctx context.Context, assetID string) ([]domain.HistoricalPerformanceEntry, error) {
	key := fmt.Sprintf("%d:%s", r.epoch.Load(), assetID)
	if entries, ok := r.history.Get(key); ok {
		r.metrics.IncrCacheHit("history")
		return entries, nil
	}
	r.metrics.IncrCacheMiss("history")

	entries, err := r.api.GetAssetHistory(ctx, assetID, r.bankID)
	if err != nil {
		return nil, err
	}
	r.history.Set(key, entries)
	return entries, nil
}

// BankHistory returns the claimed-vs-actual capital series.
func (r *Reconciler) BankHistory(ctx context.Context) (*domain.BankHistory, error) {
	return r.api.GetBankHistory(ctx, r.bankID)
}

// PendingTransactions returns the outstanding unsettled transactions.
func (r *Reconciler) PendingTransactions(ctx context.Context) ([]domain.PendingTransaction, error) {
	return r.api.ListPendingTransactions(ctx, r.bankID)
}

// AdvanceDay asks the backend to advance the simulation day, then runs a
// full reconciliation and re-fetches every detail. The epoch bump replaces
// the original client's full page reload.
func (r *Reconciler) AdvanceDay(ctx context.Context) error {
	ctx, span := recTracer.Start(ctx, "Reconciler.AdvanceDay")
	defer span.End()

	if err := r.api.AdvanceDay(ctx); err != nil {
		return err
	}
	if err := r.Reconcile(ctx); err != nil {
		return err
	}
	return r.RefreshAllDetails(ctx)
}
