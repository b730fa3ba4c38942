package domain

import "time"

// CashAssetName is the display name of the designated asset representing a
// bank's liquid balance. It is rendered distinctly and backs the cash
// balance consumed by the buy validator.
const CashAssetName = "Cash"

// ============================================================
// Banks
// ============================================================

// AssetRef identifies an asset available to a bank. IsInvestedOrPending
// partitions the dashboard into "Your Assets" vs "Available Assets".
type AssetRef struct {
	AssetID             string `json:"assetId"`
	Name                string `json:"name"`
	IsInvestedOrPending bool   `json:"isInvestedOrPending"`
}

// Investor is a player holding a stake in a bank.
type Investor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	InvestedAmount Money  `json:"investedAmount"`
}

// Bank is the bank-level aggregate: the claimed capital shown to investors
// versus the capital actually held, plus the asset partition.
type Bank struct {
	ID              string     `json:"id"`
	BankName        string     `json:"bankName"`
	ClaimedCapital  Money      `json:"claimedCapital"`
	ActualCapital   Money      `json:"actualCapital"`
	AvailableAssets []AssetRef `json:"availableAssets"`
	Investors       []Investor `json:"investors"`
}

// ============================================================
// Investments
// ============================================================

// HistoricalPerformanceEntry is one day's value of an asset or capital series.
type HistoricalPerformanceEntry struct {
	Day   int   `json:"day"`
	Value Money `json:"value"`
}

// InvestmentDetail is the per-asset, per-bank holding as of one fetch.
//
// InvestedAmount is the authoritative confirmed holding; PendingAmount is the
// signed net of unsettled buys (+) and sells (-), supplied whole by the
// backend, never recomputed client-side. A detail is superseded by the next
// fetch rather than mutated; Epoch records which reconciliation cycle
// produced it.
type InvestmentDetail struct {
	AssetID        string                       `json:"assetId"`
	Name           string                       `json:"name"`
	InvestedAmount Money                        `json:"investedAmount"`
	PendingAmount  Money                        `json:"pendingAmount"`
	HistoricalData []HistoricalPerformanceEntry `json:"historicalData"`

	Epoch uint64 `json:"-"`
}

// Projected returns the holding the transaction UI trades against:
// confirmed plus pending, exact.
func (d *InvestmentDetail) Projected() Money {
	return d.InvestedAmount.Add(d.PendingAmount)
}

// IsCash reports whether this detail is the bank's liquid balance.
func (d *InvestmentDetail) IsCash() bool {
	return d.Name == CashAssetName
}

// BankHistory is the claimed-vs-actual capital series for one bank.
type BankHistory struct {
	ClaimedHistory []HistoricalPerformanceEntry `json:"claimedHistory"`
	ActualHistory  []HistoricalPerformanceEntry `json:"actualHistory"`
}

// ============================================================
// Transactions
// ============================================================

// PendingTransaction is a submitted buy/sell not yet reflected in confirmed
// holdings. Consumed read-only; the client never constructs one.
type PendingTransaction struct {
	ID        string    `json:"id"`
	BankID    string    `json:"bankId"`
	AssetID   string    `json:"assetId"`
	Amount    Money     `json:"amount"` // signed: positive = buy, negative = sell
	CreatedAt time.Time `json:"createdAt"`
}

// TradeRequest is the payload for POST /api/buy and /api/sell. Amount is
// always positive; the endpoint carries the direction.
type TradeRequest struct {
	SourceBankID  string `json:"sourceBankId"`
	TargetAssetID string `json:"targetAssetId"`
	Amount        Money  `json:"amount"`
}

// ============================================================
// Auth
// ============================================================

// LoginRequest is the payload for POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued by the backend.
type LoginResponse struct {
	Token string `json:"token"`
}

// ============================================================
// Engine introspection
// ============================================================

// EngineMetrics is a point-in-time snapshot of engine counters, served by
// the ops endpoint.
type EngineMetrics struct {
	ReconcileCycles     int64   `json:"reconcile_cycles"`
	CallbacksInvoked    int64   `json:"callbacks_invoked"`
	SubmissionsOK       int64   `json:"submissions_ok"`
	SubmissionsFailed   int64   `json:"submissions_failed"`
	ValidationFailures  int64   `json:"validation_failures"`
	HistoryCacheHitRate float64 `json:"history_cache_hit_rate"`
}
