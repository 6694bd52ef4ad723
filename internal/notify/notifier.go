// Package notify turns trade events into human-readable notifications.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"paper_trader/internal/models"
)

type Notifier interface {
	Notify(ctx context.Context, ev models.TradeEvent) error
}

// Log writes notifications to the process log. Used when no chat transport is configured.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log.Named("notify")}
}

func (l *Log) Notify(_ context.Context, ev models.TradeEvent) error {
	l.log.Info(Format(ev),
		zap.String("account", ev.AccountID),
		zap.String("kind", string(ev.Kind)),
	)
	return nil
}

// Filter passes through only the listed kinds. An empty list passes everything.
func Filter(n Notifier, kinds []string) Notifier {
	if len(kinds) == 0 {
		return n
	}
	allow := make(map[models.EventKind]struct{}, len(kinds))
	for _, k := range kinds {
		allow[models.EventKind(strings.ToLower(strings.TrimSpace(k)))] = struct{}{}
	}
	return filtered{next: n, allow: allow}
}

type filtered struct {
	next  Notifier
	allow map[models.EventKind]struct{}
}

func (f filtered) Notify(ctx context.Context, ev models.TradeEvent) error {
	if _, ok := f.allow[ev.Kind]; !ok {
		return nil
	}
	return f.next.Notify(ctx, ev)
}

// Format renders one event as a short plain-text message.
func Format(ev models.TradeEvent) string {
	switch ev.Kind {
	case models.EventOpened:
		return fmt.Sprintf("🟢 [%s] opened %s %s\nunits: %s @ %s\nconfidence: %.0f%%\nbalance: %s",
			ev.AccountID, strings.ToUpper(string(ev.Direction)), ev.Symbol,
			ev.Units.String(), ev.Price.String(), ev.Confidence, ev.Balance.StringFixed(2))
	case models.EventClosed:
		icon := "✅"
		if ev.PnL.IsNegative() {
			icon = "🔻"
		}
		return fmt.Sprintf("%s [%s] closed %s %s @ %s (%s)\npnl: %s\nbalance: %s",
			icon, ev.AccountID, strings.ToUpper(string(ev.Direction)), ev.Symbol,
			ev.Price.String(), ev.Reason, signed(ev.PnL.StringFixed(2)), ev.Balance.StringFixed(2))
	case models.EventRejected:
		return fmt.Sprintf("⛔ [%s] rejected %s: %s", ev.AccountID, symbolOrDash(ev.Symbol), ev.Reason)
	case models.EventIgnored:
		return fmt.Sprintf("⏭ [%s] ignored %s: %s (confidence %.0f%%)",
			ev.AccountID, symbolOrDash(ev.Symbol), ev.Reason, ev.Confidence)
	default:
		return fmt.Sprintf("[%s] %s %s", ev.AccountID, ev.Kind, ev.Symbol)
	}
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}

func symbolOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
