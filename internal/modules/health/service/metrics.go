package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"paper_trader/internal/models"
)

// Metrics counts trade events per account and kind and tracks balances.
type Metrics struct {
	Registry *prometheus.Registry

	events   *prometheus.CounterVec
	balance  *prometheus.GaugeVec
	realized *prometheus.CounterVec
	ticks    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "trade_events_total", Help: "Trade events by account and kind"},
			[]string{"account", "kind"},
		),
		balance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "account_balance", Help: "Available balance after the last event"},
			[]string{"account"},
		),
		realized: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "closed_trades_total", Help: "Closed trades by outcome"},
			[]string{"account", "outcome"},
		),
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "price_ticks_total", Help: "Price marks ingested"},
			[]string{"symbol"},
		),
	}
	m.Registry.MustRegister(m.events, m.balance, m.realized, m.ticks)
	return m
}

// Observe is an event bus consumer.
func (m *Metrics) Observe(_ context.Context, ev models.TradeEvent) error {
	m.events.WithLabelValues(ev.AccountID, string(ev.Kind)).Inc()
	if ev.MutatesLedger() {
		f, _ := ev.Balance.Float64()
		m.balance.WithLabelValues(ev.AccountID).Set(f)
	}
	if ev.Kind == models.EventClosed {
		outcome := "loss"
		if ev.PnL.IsPositive() {
			outcome = "win"
		}
		m.realized.WithLabelValues(ev.AccountID, outcome).Inc()
	}
	return nil
}

func (m *Metrics) Tick(symbol string) {
	m.ticks.WithLabelValues(symbol).Inc()
}
