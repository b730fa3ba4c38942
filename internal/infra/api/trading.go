package api

import (
	"context"
	"fmt"

	"github.com/ponziworld/pwclient-go/internal/domain"
)

// ============================================================
// Trading
// ============================================================

// ListPendingTransactions fetches the outstanding unsettled transactions for
// one bank. Amounts are signed: positive = buy, negative = sell.
func (c *Client) ListPendingTransactions(ctx context.Context, bankID string) ([]domain.PendingTransaction, error) {
	var pending []domain.PendingTransaction
	path := fmt.Sprintf("/api/pendingTransactions/%s", bankID)
	if err := c.get(ctx, "ListPendingTransactions", path, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Buy submits a buy order. The amount in req must be positive; the endpoint
// carries the direction.
func (c *Client) Buy(ctx context.Context, req *domain.TradeRequest) error {
	return c.post(ctx, "Buy", "/api/buy", req, nil)
}

// Sell submits a sell order.
func (c *Client) Sell(ctx context.Context, req *domain.TradeRequest) error {
	return c.post(ctx, "Sell", "/api/sell", req, nil)
}

// AdvanceDay moves the simulation forward one day. Admin only; the backend
// rejects it for regular sessions.
func (c *Client) AdvanceDay(ctx context.Context) error {
	return c.post(ctx, "AdvanceDay", "/api/nextDay", nil, nil)
}
