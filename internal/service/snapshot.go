// Package service provides the engine's business logic: the portfolio
// snapshot, the reconciliation loop, the transaction flow, and the view
// projections the UI renders from.
package service

import (
	"sync"

	"github.com/ponziworld/pwclient-go/internal/domain"
)

// PortfolioSnapshot holds the investment details currently known for one
// open dashboard, keyed by asset id. It is the single source of truth for
// holdings and cash; every other component derives from it.
type PortfolioSnapshot struct {
	mu          sync.RWMutex
	details     map[string]*domain.InvestmentDetail
	cashAssetID string
}

// NewPortfolioSnapshot creates an empty snapshot.
func NewPortfolioSnapshot() *PortfolioSnapshot {
	return &PortfolioSnapshot{details: make(map[string]*domain.InvestmentDetail)}
}

// Set replaces any prior entry for the asset wholesale. No partial merges:
// mixing a stale pendingAmount with a fresh investedAmount from different
// fetch times is exactly the inconsistency this prevents.
func (s *PortfolioSnapshot) Set(detail *domain.InvestmentDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.details[detail.AssetID] = detail
	if detail.IsCash() {
		s.cashAssetID = detail.AssetID
	}
}

// Get returns the current detail for an asset. The returned detail is
// superseded, never mutated, by the next fetch; callers may hold it.
func (s *PortfolioSnapshot) Get(assetID string) (*domain.InvestmentDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	detail, ok := s.details[assetID]
	if !ok {
		return nil, &domain.ErrUnknownAsset{AssetID: assetID}
	}
	return detail, nil
}

// Projected returns investedAmount + pendingAmount for the asset, exact.
func (s *PortfolioSnapshot) Projected(assetID string) (domain.Money, error) {
	detail, err := s.Get(assetID)
	if err != nil {
		return domain.Money{}, err
	}
	return detail.Projected(), nil
}

// CashBalance returns the projected holding of the designated Cash asset.
// The buy-amount validator consumes this and nothing else; no other
// component derives a cash figure independently.
func (s *PortfolioSnapshot) CashBalance() (domain.Money, error) {
	s.mu.RLock()
	cashID := s.cashAssetID
	s.mu.RUnlock()

	if cashID == "" {
		return domain.Money{}, &domain.ErrUnknownAsset{AssetID: domain.CashAssetName}
	}
	return s.Projected(cashID)
}

// AssetIDs returns the ids currently present, in no particular order.
func (s *PortfolioSnapshot) AssetIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.details))
	for id := range s.details {
		ids = append(ids, id)
	}
	return ids
}
