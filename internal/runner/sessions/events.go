package sessions

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trader/internal/models"
)

func (s *AccountSession) newEvent(kind models.EventKind, symbol string) models.TradeEvent {
	return models.TradeEvent{
		ID:        uuid.NewString(),
		AccountID: s.AccountID,
		Kind:      kind,
		Symbol:    symbol,
		Balance:   s.Ledger.Balance(),
		Timestamp: s.now(),
	}
}

func (s *AccountSession) signalEvent(kind models.EventKind, sig models.Signal, reason string) models.TradeEvent {
	ev := s.newEvent(kind, sig.Symbol)
	ev.SignalID = sig.ID
	ev.Confidence = sig.Confidence
	ev.Reason = reason
	ev.Reasoning = sig.Reasoning
	if sig.Action == models.ActionBuy || sig.Action == models.ActionSell {
		ev.Direction = sig.Action.Direction()
	}
	if sig.Entry > 0 {
		ev.Price = decimal.NewFromFloat(sig.Entry)
	}
	return ev
}

func (s *AccountSession) reject(sig models.Signal, reason string) {
	s.log.Info("signal rejected",
		zap.String("signal", sig.ID),
		zap.String("symbol", sig.Symbol),
		zap.String("reason", reason),
	)
	s.publish(s.signalEvent(models.EventRejected, sig, reason))
}

func (s *AccountSession) ignore(sig models.Signal, reason string) {
	s.log.Debug("signal ignored",
		zap.String("signal", sig.ID),
		zap.String("symbol", sig.Symbol),
		zap.Float64("confidence", sig.Confidence),
		zap.String("strategy", string(s.currentStrategy())),
	)
	s.publish(s.signalEvent(models.EventIgnored, sig, reason))
}

func (s *AccountSession) emitOpened(sig models.Signal, pos models.Position) {
	ev := s.signalEvent(models.EventOpened, sig, "")
	ev.PositionID = pos.ID
	ev.Direction = pos.Direction
	ev.Units = pos.Size
	ev.Price = pos.EntryPrice
	s.publish(ev)
}

func (s *AccountSession) emitClosed(t models.ClosedTrade) {
	ev := s.newEvent(models.EventClosed, t.Position.Symbol)
	ev.SignalID = t.Position.SignalID
	ev.PositionID = t.Position.ID
	ev.Direction = t.Position.Direction
	ev.Confidence = t.Position.Confidence
	ev.Units = t.Position.Size
	ev.Price = t.ExitPrice
	ev.PnL = t.RealizedPnL
	ev.Reason = t.Reason
	s.publish(ev)
}

func (s *AccountSession) publish(ev models.TradeEvent) {
	if s.events == nil {
		return
	}
	s.events.Publish(ev)
}
