package router

import (
	"context"

	"github.com/shopspring/decimal"

	"paper_trader/internal/models"
)

// Snapshot returns a point-in-time copy of the account.
func (r *Router) Snapshot(accountID string) (models.Account, error) {
	sess, ok := r.GetSession(accountID)
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}
	return sess.Snapshot(), nil
}

// OpenPositions returns the account's open positions in insertion order.
func (r *Router) OpenPositions(accountID string) ([]models.Position, error) {
	sess, ok := r.GetSession(accountID)
	if !ok {
		return nil, ErrAccountNotFound
	}
	return sess.OpenPositions(), nil
}

// ClosePosition closes through the account queue and waits for the result.
func (r *Router) ClosePosition(ctx context.Context, accountID, positionID string, exitPrice decimal.Decimal) (models.ClosedTrade, error) {
	sess, ok := r.GetSession(accountID)
	if !ok {
		return models.ClosedTrade{}, ErrAccountNotFound
	}
	return sess.ClosePosition(ctx, positionID, exitPrice)
}
