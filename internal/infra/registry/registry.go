// Package registry implements the refresh/invalidation registry: views that
// render asset data subscribe a "re-fetch me" callback, and the reconciler
// fires them all after a state-changing action. It decouples things that
// render data from the thing that knows when data changed.
package registry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ponziworld/pwclient-go/internal/infra/observability"
)

// Callback re-fetches one view's stale data. Callbacks must not depend on
// sibling ordering; invocation order is unspecified.
type Callback func()

// Subscription is the handle returned by Subscribe. Holding an explicit
// handle (rather than comparing callback identity) makes duplicate and
// leaked registrations impossible to create by accident.
type Subscription struct {
	once sync.Once
	r    *Registry
}

// Cancel removes the subscription. Safe to call more than once, and safe to
// call from inside a callback currently being invoked by InvalidateAll.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.r.mu.Lock()
		defer s.r.mu.Unlock()
		delete(s.r.subs, s)
	})
}

// Registry is the shared set of refresh subscriptions for one dashboard.
type Registry struct {
	mu      sync.Mutex
	subs    map[*Subscription]Callback
	metrics *observability.Metrics
	logger  *zap.Logger
}

// New creates an empty registry.
func New(metrics *observability.Metrics, logger *zap.Logger) *Registry {
	return &Registry{
		subs:    make(map[*Subscription]Callback),
		metrics: metrics,
		logger:  logger,
	}
}

// Subscribe registers a callback and returns its handle. Each subscription
// appears in the set exactly once, so a callback is invoked at most once per
// InvalidateAll no matter how the caller holds it.
func (r *Registry) Subscribe(cb Callback) *Subscription {
	s := &Subscription{r: r}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[s] = cb
	return s
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// InvalidateAll synchronously invokes every currently-registered callback.
// It iterates over a snapshot of the set, so subscribing or cancelling from
// within a callback is safe; subscriptions added during the sweep are not
// invoked until the next one. A panicking callback is isolated, logged, and
// does not prevent the remaining callbacks from running.
func (r *Registry) InvalidateAll() {
	r.mu.Lock()
	snapshot := make([]Callback, 0, len(r.subs))
	for _, cb := range r.subs {
		snapshot = append(snapshot, cb)
	}
	r.mu.Unlock()

	for _, cb := range snapshot {
		r.invoke(cb)
	}
}

func (r *Registry) invoke(cb Callback) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.IncrCallbackPanic()
			r.logger.Error("refresh callback panicked", zap.Any("panic", rec))
		}
	}()

	r.metrics.IncrCallbackInvoked()
	cb()
}
