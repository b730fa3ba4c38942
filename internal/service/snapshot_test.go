package service_test

import (
	"errors"
	"testing"

	"github.com/ponziworld/pwclient-go/internal/domain"
	"github.com/ponziworld/pwclient-go/internal/service"
)

func detail(assetID, name, invested, pending string) *domain.InvestmentDetail {
	return &domain.InvestmentDetail{
		AssetID:        assetID,
		Name:           name,
		InvestedAmount: domain.MustMoney(invested),
		PendingAmount:  domain.MustMoney(pending),
	}
}

func TestSnapshot_ProjectedIsExactSum(t *testing.T) {
	s := service.NewPortfolioSnapshot()
	s.Set(detail("a1", "Gold", "100.00", "-25.50"))

	got, err := s.Projected("a1")
	if err != nil {
		t.Fatal(err)
	}
	want := domain.MustMoney("74.50")
	if got.Compare(want) != 0 {
		t.Errorf("Projected = %s, want %s", got, want)
	}
}

func TestSnapshot_SetReplacesWholesale(t *testing.T) {
	s := service.NewPortfolioSnapshot()
	s.Set(detail("a1", "Gold", "100.00", "-25.50"))
	s.Set(detail("a1", "Gold", "74.50", "0"))

	d, err := s.Get("a1")
	if err != nil {
		t.Fatal(err)
	}
	if !d.PendingAmount.IsZero() {
		t.Errorf("stale pending survived replacement: %s", d.PendingAmount)
	}
	if d.InvestedAmount.WireString() != "74.5" {
		t.Errorf("InvestedAmount = %s", d.InvestedAmount)
	}
}

func TestSnapshot_UnknownAsset(t *testing.T) {
	s := service.NewPortfolioSnapshot()

	_, err := s.Projected("ghost")
	var unknown *domain.ErrUnknownAsset
	if !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
	if unknown.AssetID != "ghost" {
		t.Errorf("AssetID = %s", unknown.AssetID)
	}
}

func TestSnapshot_CashBalanceComesFromCashDetail(t *testing.T) {
	s := service.NewPortfolioSnapshot()

	// No cash fetched yet: the validator must see an invariant failure,
	// not a silent zero.
	if _, err := s.CashBalance(); err == nil {
		t.Fatal("expected error before the Cash detail is fetched")
	}

	s.Set(detail("cash-1", domain.CashAssetName, "500.00", "-120.25"))
	cash, err := s.CashBalance()
	if err != nil {
		t.Fatal(err)
	}
	if cash.WireString() != "379.75" {
		t.Errorf("CashBalance = %s, want 379.75", cash)
	}
}

func TestSnapshot_AssetIDs(t *testing.T) {
	s := service.NewPortfolioSnapshot()
	s.Set(detail("a1", "Gold", "1", "0"))
	s.Set(detail("a2", "Oil", "2", "0"))

	if got := len(s.AssetIDs()); got != 2 {
		t.Errorf("len(AssetIDs) = %d, want 2", got)
	}
}
