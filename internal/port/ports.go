// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the engine's
// service layer from the concrete backend client and session storage.
package port

import (
	"context"

	"github.com/ponziworld/pwclient-go/internal/domain"
)

// BankAPI is the remote authority: the PonziWorld backend's HTTP contract.
// All monetary fields cross this boundary as decimal strings.
type BankAPI interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, username, password string) (string, error)

	// ListBanks fetches every bank visible to the session.
	ListBanks(ctx context.Context) ([]domain.Bank, error)

	// GetBank fetches the session's bank via the legacy single-bank endpoint.
	GetBank(ctx context.Context) (*domain.Bank, error)

	// GetInvestmentDetail fetches the confirmed holding, pending delta and
	// history for one asset of one bank.
	GetInvestmentDetail(ctx context.Context, assetID, bankID string) (*domain.InvestmentDetail, error)

	// GetAssetHistory fetches the per-day value series for one asset.
	GetAssetHistory(ctx context.Context, assetID, bankID string) ([]domain.HistoricalPerformanceEntry, error)

	// GetBankHistory fetches the claimed-vs-actual capital series.
	GetBankHistory(ctx context.Context, bankID string) (*domain.BankHistory, error)

	// ListPendingTransactions fetches the outstanding unsettled transactions.
	ListPendingTransactions(ctx context.Context, bankID string) ([]domain.PendingTransaction, error)

	// Buy submits a buy order. A nil error means the backend accepted it.
	Buy(ctx context.Context, req *domain.TradeRequest) error

	// Sell submits a sell order.
	Sell(ctx context.Context, req *domain.TradeRequest) error

	// AdvanceDay moves the simulation forward one day (admin only).
	AdvanceDay(ctx context.Context) error
}

// TokenSource supplies the bearer token attached to authenticated requests.
// Implemented by session.Session.
type TokenSource interface {
	Token() (string, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
