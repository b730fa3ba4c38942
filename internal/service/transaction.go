package service

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ponziworld/pwclient-go/internal/domain"
	"github.com/ponziworld/pwclient-go/internal/infra/observability"
	"github.com/ponziworld/pwclient-go/internal/port"
)

var txTracer = otel.Tracer("service/transaction")

// TradeIntent is the direction of a transaction.
type TradeIntent int

const (
	IntentBuy TradeIntent = iota
	IntentSell
)

func (i TradeIntent) String() string {
	if i == IntentSell {
		return "sell"
	}
	return "buy"
}

// FlowState is the transaction dialog lifecycle.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowAmountEntry
	FlowValidating
	FlowSubmitting
	FlowSucceeded
	FlowFailed
)

// TransactionFlow orchestrates one buy/sell dialog: amount entry validated
// on every keystroke against live constraints, single-flight submission, and
// reconciliation on success. It never mutates the snapshot itself — the only
// authoritative update path is the re-fetch the reconciler performs.
type TransactionFlow struct {
	api     port.BankAPI
	rec     *Reconciler
	status  *StatusSignal
	metrics *observability.Metrics
	logger  *zap.Logger

	mu            sync.Mutex
	state         FlowState
	intent        TradeIntent
	assetID       string
	rawAmount     string
	amount        domain.Money
	validationErr error
	sellAll       bool
}

// NewTransactionFlow creates an idle flow bound to one dashboard.
func NewTransactionFlow(api port.BankAPI, rec *Reconciler, status *StatusSignal, metrics *observability.Metrics, logger *zap.Logger) *TransactionFlow {
	return &TransactionFlow{
		api:     api,
		rec:     rec,
		status:  status,
		metrics: metrics,
		logger:  logger,
	}
}

// State returns the current lifecycle state.
func (f *TransactionFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ValidationError returns the error blocking submission, if any.
func (f *TransactionFlow) ValidationError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validationErr
}

// Amount returns the current amount text as entered.
func (f *TransactionFlow) Amount() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rawAmount
}

// IsSellAll reports whether the amount was set by the sell-all toggle.
func (f *TransactionFlow) IsSellAll() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sellAll
}

// Begin opens the dialog for one asset and direction.
func (f *TransactionFlow) Begin(intent TradeIntent, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == FlowSubmitting {
		return &domain.ErrSubmissionInFlight{}
	}

	f.state = FlowAmountEntry
	f.intent = intent
	f.assetID = assetID
	f.rawAmount = ""
	f.amount = domain.Money{}
	f.validationErr = nil
	f.sellAll = false
	return nil
}

// SetAmount records a keystroke's worth of input and validates it against
// the live constraints. The returned error (also retrievable via
// ValidationError) blocks submission but is resolved locally — it never
// reaches the network layer.
func (f *TransactionFlow) SetAmount(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == FlowSubmitting {
		return &domain.ErrSubmissionInFlight{}
	}
	f.rawAmount = text
	f.sellAll = false
	f.state = FlowValidating
	f.amount, f.validationErr = f.validateLocked(text)
	f.state = FlowAmountEntry

	if f.validationErr != nil {
		f.metrics.IncrValidationFailure(validationReason(f.validationErr))
	}
	return f.validationErr
}

// SellAll sets the amount to exactly the current projected holding. The
// value comes from the snapshot's wire form, so it stays numerically
// identical to the holding — no display rounding in between.
func (f *TransactionFlow) SellAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	projected, err := f.rec.Snapshot().Projected(f.assetID)
	if err != nil {
		return err
	}

	f.rawAmount = projected.WireString()
	f.amount = projected
	f.validationErr = nil
	f.sellAll = true
	f.state = FlowAmountEntry
	return nil
}

// CanSubmit reports whether the submit control is enabled: an amount is
// present and no validation error stands.
func (f *TransactionFlow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == FlowAmountEntry && f.rawAmount != "" && f.validationErr == nil
}

// Cancel discards all entered state. Refused once submission has started:
// the in-flight request always resolves to Succeeded or Failed.
func (f *TransactionFlow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == FlowSubmitting {
		return &domain.ErrSubmissionInFlight{}
	}
	f.reset()
	return nil
}

// Submit revalidates, submits the trade, and on success triggers the
// ordered reconciliation: bank aggregate first, then every registered
// per-asset refresh callback. On failure the backend's message is surfaced
// verbatim and no snapshot entry is touched.
func (f *TransactionFlow) Submit(ctx context.Context) error {
	ctx, span := txTracer.Start(ctx, "TransactionFlow.Submit")
	defer span.End()

	f.mu.Lock()
	if f.state == FlowSubmitting {
		f.mu.Unlock()
		return &domain.ErrSubmissionInFlight{}
	}

	f.state = FlowValidating
	amount, err := f.validateLocked(f.rawAmount)
	if err != nil {
		f.validationErr = err
		f.state = FlowAmountEntry
		f.metrics.IncrValidationFailure(validationReason(err))
		f.mu.Unlock()
		return err
	}

	if !f.status.BeginLoading(f.intent.String() + " in progress") {
		f.state = FlowAmountEntry
		f.mu.Unlock()
		return &domain.ErrSubmissionInFlight{}
	}

	f.state = FlowSubmitting
	intent := f.intent
	assetID := f.assetID
	f.mu.Unlock()

	span.SetAttributes(
		attribute.String("trade.intent", intent.String()),
		attribute.String("asset.id", assetID),
	)

	req := &domain.TradeRequest{
		SourceBankID:  f.rec.BankID(),
		TargetAssetID: assetID,
		Amount:        amount,
	}

	if intent == IntentBuy {
		err = f.api.Buy(ctx, req)
	} else {
		err = f.api.Sell(ctx, req)
	}

	if err != nil {
		f.metrics.IncrSubmission("failed")
		f.logger.Warn("trade submission failed",
			zap.String("intent", intent.String()),
			zap.String("asset_id", assetID),
			zap.Error(err),
		)

		f.mu.Lock()
		f.state = FlowFailed
		f.reset()
		f.mu.Unlock()

		f.status.Resolve(StatusError, err.Error())
		return err
	}

	f.metrics.IncrSubmission("ok")

	// Bank refresh is awaited to completion before per-asset callbacks
	// fire; the invested/available partition must be current first.
	if rerr := f.rec.Reconcile(ctx); rerr != nil {
		f.logger.Error("post-trade reconciliation failed", zap.Error(rerr))
		f.mu.Lock()
		f.state = FlowSucceeded
		f.reset()
		f.mu.Unlock()
		f.status.Resolve(StatusError, rerr.Error())
		return rerr
	}

	f.mu.Lock()
	f.state = FlowSucceeded
	f.reset()
	f.mu.Unlock()

	f.status.Resolve(StatusSuccess, intent.String()+" confirmed")
	return nil
}

// reset returns the flow to idle, discarding entered state. Caller holds mu.
func (f *TransactionFlow) reset() {
	f.state = FlowIdle
	f.rawAmount = ""
	f.amount = domain.Money{}
	f.validationErr = nil
	f.sellAll = false
}

// validateLocked applies the validation rules for the current intent.
// Caller holds mu.
func (f *TransactionFlow) validateLocked(text string) (domain.Money, error) {
	amount, err := domain.ParseMoney(text)
	if err != nil {
		return domain.Money{}, err
	}
	if !amount.IsPositive() {
		return domain.Money{}, &domain.ErrInvalidAmount{Input: text, Reason: "amount must be strictly positive"}
	}

	switch f.intent {
	case IntentSell:
		held, err := f.rec.Snapshot().Projected(f.assetID)
		if err != nil {
			return domain.Money{}, err
		}
		if amount.Compare(held) == 1 {
			return domain.Money{}, &domain.ErrExceedsHoldings{Requested: amount, Held: held}
		}
	case IntentBuy:
		cash, err := f.rec.Snapshot().CashBalance()
		if err != nil {
			return domain.Money{}, err
		}
		if amount.Compare(cash) == 1 {
			return domain.Money{}, &domain.ErrInsufficientCash{Requested: amount, Available: cash}
		}
	}
	return amount, nil
}

func validationReason(err error) string {
	switch err.(type) {
	case *domain.ErrExceedsHoldings:
		return "exceeds_holdings"
	case *domain.ErrInsufficientCash:
		return "insufficient_cash"
	default:
		return "invalid_amount"
	}
}
