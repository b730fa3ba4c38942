package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ponziworld/pwclient-go/internal/domain"
	"github.com/ponziworld/pwclient-go/internal/infra/observability"
	"github.com/ponziworld/pwclient-go/internal/service"
	"github.com/ponziworld/pwclient-go/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the local ops HTTP router. It is an inspection and
// control surface for the running engine, not a public API: everything it
// serves comes from the reconciler's in-memory state or drives a refresh.
func NewRouter(rec *service.Reconciler, flow *service.TransactionFlow, status *service.StatusSignal, sess *session.Session, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(sess))
	r.Get("/readyz", readyzHandler(rec))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Engine inspection ---
	r.Get("/ops/engine", engineHandler(rec, metrics))
	r.Get("/ops/portfolio", portfolioHandler(rec, logger))
	r.Get("/ops/pending", pendingHandler(rec, logger))
	r.Get("/ops/capital", capitalHandler(rec, logger))

	// --- Engine control ---
	r.Post("/ops/reconcile", reconcileHandler(rec, logger))
	r.Post("/ops/nextday", nextDayHandler(rec, logger))
	r.Post("/ops/trade", tradeHandler(flow, logger))
	r.Get("/ops/status", statusHandler(status))

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"authenticated": sess.Valid(),
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readyzHandler reports ready once the first reconciliation has landed a
// bank snapshot. Before that the engine has nothing to serve.
func readyzHandler(rec *service.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rec.Bank() == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Engine inspection
// ============================================================

type engineResponse struct {
	BankID        string                `json:"bank_id"`
	Epoch         uint64                `json:"epoch"`
	Subscriptions int                   `json:"subscriptions"`
	Metrics       *domain.EngineMetrics `json:"metrics"`
}

func engineHandler(rec *service.Reconciler, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, engineResponse{
			BankID:        rec.BankID(),
			Epoch:         rec.Epoch(),
			Subscriptions: rec.Registry().Len(),
			Metrics:       metrics.GetEngineSnapshot(),
		})
	}
}

type portfolioResponse struct {
	Bank   *domain.Bank         `json:"bank"`
	Assets []*service.AssetView `json:"assets"`
}

func portfolioHandler(rec *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /ops/portfolio")
		defer span.End()

		bank := rec.Bank()
		if bank == nil {
			writeError(w, http.StatusServiceUnavailable, "no bank snapshot yet")
			return
		}

		snap := rec.Snapshot()
		views := make([]*service.AssetView, 0, len(bank.AvailableAssets))
		for _, ref := range bank.AvailableAssets {
			detail, err := snap.Get(ref.AssetID)
			if err != nil {
				// Not fetched yet this epoch, skip rather than fail the page.
				logger.Debug("asset detail missing", zap.String("asset_id", ref.AssetID))
				continue
			}
			views = append(views, service.BuildAssetView(detail, ref.IsInvestedOrPending))
		}
		writeJSON(w, http.StatusOK, portfolioResponse{Bank: bank, Assets: views})
	}
}

func pendingHandler(rec *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /ops/pending")
		defer span.End()

		pending, err := rec.PendingTransactions(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	}
}

func capitalHandler(rec *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /ops/capital")
		defer span.End()

		history, err := rec.BankHistory(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, service.BuildCapitalView(history))
	}
}

// ============================================================
// Engine control
// ============================================================

func reconcileHandler(rec *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /ops/reconcile")
		defer span.End()

		if err := rec.Reconcile(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := rec.RefreshAllDetails(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]uint64{"epoch": rec.Epoch()})
	}
}

func nextDayHandler(rec *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /ops/nextday")
		defer span.End()

		if err := rec.AdvanceDay(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]uint64{"epoch": rec.Epoch()})
	}
}

type tradeRequest struct {
	Intent  string `json:"intent"` // "buy" or "sell"
	AssetID string `json:"asset_id"`
	Amount  string `json:"amount"`
	SellAll bool   `json:"sell_all"`
}

func tradeHandler(flow *service.TransactionFlow, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /ops/trade")
		defer span.End()

		var req tradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var intent service.TradeIntent
		switch req.Intent {
		case "buy":
			intent = service.IntentBuy
		case "sell":
			intent = service.IntentSell
		default:
			writeError(w, http.StatusBadRequest, "intent must be \"buy\" or \"sell\"")
			return
		}

		if err := flow.Begin(intent, req.AssetID); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		if req.SellAll {
			if err := flow.SellAll(); err != nil {
				handleServiceError(w, err, logger)
				return
			}
		} else if err := flow.SetAmount(req.Amount); err != nil {
			// Validation failures are resolved locally, never sent upstream.
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		if err := flow.Submit(ctx); err != nil {
			var inFlight *domain.ErrSubmissionInFlight
			if errors.As(err, &inFlight) {
				writeError(w, http.StatusConflict, err.Error())
				return
			}
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"result": "accepted"})
	}
}

func statusHandler(status *service.StatusSignal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, message := status.Current()
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  current.String(),
			"message": message,
		})
	}
}

// ============================================================
// Shared helpers
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleServiceError maps engine errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var network *domain.ErrNetwork
	var rejected *domain.ErrRemoteRejected
	var unknownAsset *domain.ErrUnknownAsset
	var notAuth *domain.ErrNotAuthenticated
	var expired *domain.ErrSessionExpired
	var invalidAmount *domain.ErrInvalidAmount
	var exceedsHoldings *domain.ErrExceedsHoldings
	var insufficientCash *domain.ErrInsufficientCash

	switch {
	case errors.As(err, &invalidAmount), errors.As(err, &exceedsHoldings), errors.As(err, &insufficientCash):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &network):
		logger.Error("backend unreachable", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &rejected):
		logger.Warn("backend rejected request", zap.Int("status", rejected.Status), zap.String("message", rejected.Message))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &unknownAsset):
		logger.Debug("unknown asset", zap.String("asset_id", unknownAsset.AssetID))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &notAuth), errors.As(err, &expired):
		logger.Warn("session invalid", zap.Error(err))
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
