package service_test

import (
	"errors"
	"testing"

	"github.com/ponziworld/pwclient-go/internal/domain"
	"github.com/ponziworld/pwclient-go/internal/service"
)

func entries(values ...string) []domain.HistoricalPerformanceEntry {
	out := make([]domain.HistoricalPerformanceEntry, len(values))
	for i, v := range values {
		out[i] = domain.HistoricalPerformanceEntry{Day: i + 1, Value: domain.MustMoney(v)}
	}
	return out
}

func TestAssetView_NoPendingSuffixWhenSettled(t *testing.T) {
	v := service.BuildAssetView(detail("a1", "Gold", "100.00", "0.00"), true)

	if v.DisplayAmount != "100.00" {
		t.Errorf("DisplayAmount = %q, want 100.00", v.DisplayAmount)
	}
	if v.Pending != service.PendingNone {
		t.Errorf("Pending = %v, want none", v.Pending)
	}
}

func TestAssetView_PendingSellSuffix(t *testing.T) {
	v := service.BuildAssetView(detail("a1", "Gold", "100.00", "-25.50"), true)

	if v.DisplayAmount != "100.00 - 25.50" {
		t.Errorf("DisplayAmount = %q, want \"100.00 - 25.50\"", v.DisplayAmount)
	}
	if v.Pending != service.PendingSell {
		t.Errorf("Pending = %v, want sell", v.Pending)
	}
}

func TestAssetView_PendingBuySuffix(t *testing.T) {
	v := service.BuildAssetView(detail("a1", "Gold", "100.00", "10.25"), true)

	if v.DisplayAmount != "100.00 + 10.25" {
		t.Errorf("DisplayAmount = %q", v.DisplayAmount)
	}
	if v.Pending != service.PendingBuy {
		t.Errorf("Pending = %v, want buy", v.Pending)
	}
}

func TestAssetView_KindSelectedOnce(t *testing.T) {
	cash := service.BuildAssetView(detail("c1", domain.CashAssetName, "500", "0"), true)
	if cash.Kind != service.KindCash {
		t.Errorf("cash Kind = %v", cash.Kind)
	}

	invested := service.BuildAssetView(detail("a1", "Gold", "100", "0"), true)
	if invested.Kind != service.KindInvested {
		t.Errorf("invested Kind = %v", invested.Kind)
	}

	uninvested := service.BuildAssetView(detail("a2", "Oil", "0", "0"), false)
	if uninvested.Kind != service.KindUninvested {
		t.Errorf("uninvested Kind = %v", uninvested.Kind)
	}
}

func TestAssetView_ShortHistoryIsNeutralZero(t *testing.T) {
	d := detail("a1", "Gold", "100", "0")
	d.HistoricalData = entries("100") // exactly one point

	v := service.BuildAssetView(d, true)

	if !v.OneDayChange.IsZero() || !v.SevenDayChange.IsZero() {
		t.Errorf("changes = %s / %s, want 0 / 0", v.OneDayChange, v.SevenDayChange)
	}
	if v.OneDayTrend != service.TrendNeutral || v.SevenDayTrend != service.TrendNeutral {
		t.Errorf("trends = %v / %v, want neutral", v.OneDayTrend, v.SevenDayTrend)
	}
}

func TestAssetView_OneDayChange(t *testing.T) {
	d := detail("a1", "Gold", "100", "0")
	d.HistoricalData = entries("80", "100", "110")

	v := service.BuildAssetView(d, true)

	if v.OneDayChange.String() != "10" {
		t.Errorf("OneDayChange = %s, want 10", v.OneDayChange)
	}
	if v.OneDayTrend != service.TrendPositive {
		t.Errorf("OneDayTrend = %v", v.OneDayTrend)
	}
	// Only three points: 7d stays neutral zero.
	if !v.SevenDayChange.IsZero() {
		t.Errorf("SevenDayChange = %s, want 0", v.SevenDayChange)
	}
}

func TestAssetView_SevenDayChange(t *testing.T) {
	d := detail("a1", "Gold", "100", "0")
	d.HistoricalData = entries("200", "90", "95", "100", "105", "110", "115", "120", "150")

	v := service.BuildAssetView(d, true)

	// latest 150 vs 8 entries back (90): +66.66..%
	if v.SevenDayTrend != service.TrendPositive {
		t.Errorf("SevenDayTrend = %v", v.SevenDayTrend)
	}
	if v.OneDayChange.String() != "25" {
		t.Errorf("OneDayChange = %s, want 25", v.OneDayChange)
	}
}

func TestAssetView_NegativeChangeClassifiedNegative(t *testing.T) {
	d := detail("a1", "Gold", "100", "0")
	d.HistoricalData = entries("100", "90")

	v := service.BuildAssetView(d, true)

	if v.OneDayChange.String() != "-10" {
		t.Errorf("OneDayChange = %s, want -10", v.OneDayChange)
	}
	if v.OneDayTrend != service.TrendNegative {
		t.Errorf("OneDayTrend = %v", v.OneDayTrend)
	}
}

func TestCapitalView(t *testing.T) {
	v := service.BuildCapitalView(&domain.BankHistory{
		ClaimedHistory: entries("100", "120"),
		ActualHistory:  entries("100", "80"),
	})

	if v.ClaimedTrend != service.TrendPositive {
		t.Errorf("ClaimedTrend = %v", v.ClaimedTrend)
	}
	if v.ActualTrend != service.TrendNegative {
		t.Errorf("ActualTrend = %v", v.ActualTrend)
	}
}

func TestHistoryView_FailureExposesRetry(t *testing.T) {
	calls := 0
	h := &service.HistoryView{
		Err:   errors.New("history fetch failed"),
		Retry: func() { calls++ },
	}

	if !h.Failed() {
		t.Fatal("expected failed view")
	}
	h.Retry()
	if calls != 1 {
		t.Errorf("retry invoked %d times, want 1", calls)
	}
}
