package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trader/internal/ledger"
	"paper_trader/internal/models"
	"paper_trader/internal/risk"
	"paper_trader/internal/validator"
)

const (
	ReasonDuplicatePosition   = "duplicate position"
	ReasonBelowThreshold      = "confidence below strategy threshold"
	ReasonInsufficientBalance = "insufficient balance"
	ReasonQueueFull           = "queue full"
	ReasonManualClose         = "manual"
)

// Worker applies queued commands one at a time until the session is stopped.
func (s *AccountSession) Worker() {
	s.log.Info("account worker started", zap.String("strategy", string(s.currentStrategy())))
	defer s.log.Info("account worker stopped")

	for {
		select {
		case <-s.Ctx.Done():
			return
		case cmd := <-s.queue:
			switch {
			case cmd.signal != nil:
				s.handleSignal(s.Ctx, *cmd.signal)
			case cmd.close != nil:
				s.handleClose(s.Ctx, cmd.close)
			}
		}
	}
}

// handleSignal walks Received -> Validated -> PolicyResolved -> Sized -> Opened,
// leaving early into Rejected (or Ignored for a policy rejection).
func (s *AccountSession) handleSignal(ctx context.Context, sig models.Signal) {
	sig.Symbol = models.NormalizeSymbol(sig.Symbol)

	span, _ := opentracing.StartSpanFromContext(ctx, "session.signal")
	span.SetTag("account", s.AccountID)
	span.SetTag("symbol", sig.Symbol)
	defer span.Finish()

	log := s.log.With(zap.String("signal", sig.ID), zap.String("symbol", sig.Symbol))

	// 0) one position per instrument, checked before anything else
	if s.Ledger.HasOpen(sig.Symbol) {
		s.reject(sig, ReasonDuplicatePosition)
		return
	}

	// 1) structure and ranges
	if err := validator.Validate(sig); err != nil {
		var vErr *validator.ValidationError
		reason := err.Error()
		if errors.As(err, &vErr) {
			reason = vErr.Reason
		}
		s.reject(sig, reason)
		return
	}

	// 2) strategy gate and sizing tier
	strategy := s.currentStrategy()
	policy, err := risk.Resolve(strategy, sig.Confidence)
	if err != nil {
		if errors.Is(err, risk.ErrBelowThreshold) {
			s.ignore(sig, ReasonBelowThreshold)
			return
		}
		s.reject(sig, err.Error())
		return
	}

	// 3) size from the current balance and the fixed per-trade risk
	entry := decimal.NewFromFloat(sig.Entry)
	sizing, err := risk.Size(s.Ledger.Balance(), s.settings.RiskPct, entry)
	if err != nil {
		s.reject(sig, err.Error())
		return
	}

	// 4) open
	pos := models.Position{
		ID:            uuid.NewString(),
		SignalID:      sig.ID,
		Symbol:        sig.Symbol,
		Direction:     sig.Action.Direction(),
		EntryPrice:    entry,
		Size:          sizing.Units,
		CurrentPrice:  entry,
		Confidence:    sig.Confidence,
		Strategy:      strategy,
		PositionRatio: policy.PositionRatio,
		Leverage:      policy.Leverage,
		OpenTime:      s.now(),
		StopLoss:      decimal.NewFromFloat(sig.StopLoss),
		TakeProfit:    decimal.NewFromFloat(sig.TakeProfit),
	}
	if err := s.Ledger.Open(pos); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			s.reject(sig, ReasonInsufficientBalance)
			return
		}
		s.reject(sig, err.Error())
		return
	}

	log.Info("position opened",
		zap.String("position", pos.ID),
		zap.String("direction", string(pos.Direction)),
		zap.String("units", pos.Size.String()),
		zap.String("notional", sizing.Notional.String()),
		zap.String("risk_level", string(policy.RiskLevel)),
		zap.Int("leverage", policy.Leverage),
	)
	s.emitOpened(sig, pos)
}

func (s *AccountSession) handleClose(ctx context.Context, req *closeRequest) {
	span, _ := opentracing.StartSpanFromContext(ctx, "session.close")
	span.SetTag("account", s.AccountID)
	span.SetTag("position", req.positionID)
	defer span.Finish()

	trade, err := s.Ledger.Close(req.positionID, req.exitPrice, s.now(), req.reason)

	s.mu.Lock()
	delete(s.closing, req.positionID)
	s.mu.Unlock()

	if req.reply != nil {
		req.reply <- closeResult{trade: trade, err: err}
	}
	if err != nil {
		s.log.Warn("close failed",
			zap.String("position", req.positionID),
			zap.String("reason", req.reason),
			zap.Error(err),
		)
		return
	}

	s.log.Info("position closed",
		zap.String("position", trade.Position.ID),
		zap.String("symbol", trade.Position.Symbol),
		zap.String("exit", trade.ExitPrice.String()),
		zap.String("pnl", trade.RealizedPnL.String()),
		zap.String("reason", trade.Reason),
	)
	s.emitClosed(trade)
}
