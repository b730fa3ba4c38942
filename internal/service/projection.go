package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ponziworld/pwclient-go/internal/domain"
)

// AssetKind is the tagged view-model variant, selected once per asset and
// rendered polymorphically instead of branching at each call site.
type AssetKind int

const (
	KindCash AssetKind = iota
	KindInvested
	KindUninvested
)

func (k AssetKind) String() string {
	switch k {
	case KindCash:
		return "cash"
	case KindInvested:
		return "invested"
	default:
		return "uninvested"
	}
}

// Trend classifies a percent change for styling. Zero is neutral.
type Trend int

const (
	TrendNeutral Trend = iota
	TrendPositive
	TrendNegative
)

func (t Trend) String() string {
	switch t {
	case TrendPositive:
		return "positive"
	case TrendNegative:
		return "negative"
	default:
		return "neutral"
	}
}

// PendingKind classifies the unsettled direction of a holding.
type PendingKind int

const (
	PendingNone PendingKind = iota
	PendingBuy
	PendingSell
)

// AssetView is everything an asset row or detail popup displays, derived
// from one InvestmentDetail. Views hold AssetViews as non-authoritative
// state and rebuild them when invalidated, never mutate them.
type AssetView struct {
	Kind    AssetKind
	AssetID string
	Name    string

	// DisplayAmount is the confirmed holding, with a signed pending
	// suffix only when a pending delta exists.
	DisplayAmount string
	Pending       PendingKind

	OneDayChange   decimal.Decimal
	SevenDayChange decimal.Decimal
	OneDayTrend    Trend
	SevenDayTrend  Trend
}

// BuildAssetView derives the display projection for one asset. The kind is
// chosen once: Cash for the liquid balance, Invested when the bank holds or
// is settling the asset, Uninvested otherwise.
func BuildAssetView(detail *domain.InvestmentDetail, investedOrPending bool) *AssetView {
	v := &AssetView{
		AssetID:       detail.AssetID,
		Name:          detail.Name,
		DisplayAmount: displayAmount(detail),
		Pending:       pendingKind(detail.PendingAmount),
	}

	switch {
	case detail.IsCash():
		v.Kind = KindCash
	case investedOrPending:
		v.Kind = KindInvested
	default:
		v.Kind = KindUninvested
	}

	v.OneDayChange = changeOverDays(detail.HistoricalData, 1)
	v.SevenDayChange = changeOverDays(detail.HistoricalData, 7)
	v.OneDayTrend = trendOf(v.OneDayChange)
	v.SevenDayTrend = trendOf(v.SevenDayChange)
	return v
}

// displayAmount renders the confirmed holding, suffixed with the signed
// pending delta only when one exists. The suffix sign follows the sign of
// the pending amount.
func displayAmount(detail *domain.InvestmentDetail) string {
	invested := detail.InvestedAmount.DisplayString("", 2)
	if detail.PendingAmount.IsZero() {
		return invested
	}

	sign := "+"
	if detail.PendingAmount.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%s %s %s", invested, sign, detail.PendingAmount.Abs().DisplayString("", 2))
}

func pendingKind(pending domain.Money) PendingKind {
	switch {
	case pending.IsPositive():
		return PendingBuy
	case pending.IsNegative():
		return PendingSell
	default:
		return PendingNone
	}
}

// changeOverDays computes the percent change between the latest entry and
// the one `days` entries back. Defined as zero when the series is too short.
func changeOverDays(entries []domain.HistoricalPerformanceEntry, days int) decimal.Decimal {
	if len(entries) < days+1 {
		return decimal.Zero
	}
	latest := entries[len(entries)-1].Value
	base := entries[len(entries)-1-days].Value
	return domain.PercentChange(latest, base)
}

func trendOf(change decimal.Decimal) Trend {
	switch change.Sign() {
	case 1:
		return TrendPositive
	case -1:
		return TrendNegative
	default:
		return TrendNeutral
	}
}

// CapitalView is the claimed-vs-actual capital projection for the bank's
// own history popup.
type CapitalView struct {
	ClaimedOneDay   decimal.Decimal
	ClaimedTrend    Trend
	ActualOneDay    decimal.Decimal
	ActualTrend     Trend
	ClaimedSevenDay decimal.Decimal
	ActualSevenDay  decimal.Decimal
}

// BuildCapitalView derives the capital projection from the bank history.
func BuildCapitalView(history *domain.BankHistory) *CapitalView {
	v := &CapitalView{
		ClaimedOneDay:   changeOverDays(history.ClaimedHistory, 1),
		ActualOneDay:    changeOverDays(history.ActualHistory, 1),
		ClaimedSevenDay: changeOverDays(history.ClaimedHistory, 7),
		ActualSevenDay:  changeOverDays(history.ActualHistory, 7),
	}
	v.ClaimedTrend = trendOf(v.ClaimedOneDay)
	v.ActualTrend = trendOf(v.ActualOneDay)
	return v
}

// HistoryView wraps a chart series fetch that may have failed. A failed
// load renders an explicit error with a retry action, never silent zeros.
type HistoryView struct {
	Entries []domain.HistoricalPerformanceEntry
	Err     error
	Retry   func() // re-runs the fetch that produced this view
}

// Failed reports whether the view should render its error affordance.
func (h *HistoryView) Failed() bool {
	return h.Err != nil
}
