package api

import (
	"context"
	"fmt"

	"github.com/ponziworld/pwclient-go/internal/domain"
)

// ============================================================
// Banks and investments
// ============================================================

// ListBanks fetches every bank visible to the session.
func (c *Client) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	var banks []domain.Bank
	if err := c.get(ctx, "ListBanks", "/api/banks", &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// GetBank fetches the session's bank via the legacy single-bank endpoint.
func (c *Client) GetBank(ctx context.Context) (*domain.Bank, error) {
	var bank domain.Bank
	if err := c.get(ctx, "GetBank", "/api/bank", &bank); err != nil {
		return nil, err
	}
	return &bank, nil
}

// GetInvestmentDetail fetches the confirmed holding, the backend-computed
// pending delta, and the value history for one asset of one bank.
func (c *Client) GetInvestmentDetail(ctx context.Context, assetID, bankID string) (*domain.InvestmentDetail, error) {
	var detail domain.InvestmentDetail
	path := fmt.Sprintf("/api/investment/%s/%s", assetID, bankID)
	if err := c.get(ctx, "GetInvestmentDetail", path, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetAssetHistory fetches the per-day value series for one asset.
func (c *Client) GetAssetHistory(ctx context.Context, assetID, bankID string) ([]domain.HistoricalPerformanceEntry, error) {
	var entries []domain.HistoricalPerformanceEntry
	path := fmt.Sprintf("/api/historicalPerformance/asset/%s/%s", assetID, bankID)
	if err := c.get(ctx, "GetAssetHistory", path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetBankHistory fetches the claimed-vs-actual capital series for one bank.
func (c *Client) GetBankHistory(ctx context.Context, bankID string) (*domain.BankHistory, error) {
	var history domain.BankHistory
	path := fmt.Sprintf("/api/historicalPerformance/ownbank/%s", bankID)
	if err := c.get(ctx, "GetBankHistory", path, &history); err != nil {
		return nil, err
	}
	return &history, nil
}
