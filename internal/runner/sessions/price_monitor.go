package sessions

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpdatePrice marks open positions and queues a close for every position whose
// stop-loss or take-profit was crossed. The close itself runs on the worker.
func (s *AccountSession) UpdatePrice(symbol string, price decimal.Decimal) {
	for _, t := range s.Ledger.UpdatePrice(symbol, price) {
		id := t.Position.ID

		s.mu.Lock()
		if s.closing[id] {
			s.mu.Unlock()
			continue
		}
		s.closing[id] = true
		s.mu.Unlock()

		cmd := command{close: &closeRequest{
			positionID: id,
			exitPrice:  t.ExitPrice,
			reason:     t.Reason,
		}}
		select {
		case s.queue <- cmd:
			s.log.Info("exit triggered",
				zap.String("position", id),
				zap.String("symbol", symbol),
				zap.String("mark", price.String()),
				zap.String("reason", t.Reason),
			)
		default:
			// next mark retries
			s.mu.Lock()
			delete(s.closing, id)
			s.mu.Unlock()
			s.log.Warn("queue full, exit deferred", zap.String("position", id))
		}
	}
}
