package sessions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trader/internal/ledger"
	"paper_trader/internal/models"
)

type chanPublisher chan models.TradeEvent

func (c chanPublisher) Publish(ev models.TradeEvent) { c <- ev }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSession(t *testing.T, strategy models.Strategy, queue int, start bool) (*AccountSession, chanPublisher) {
	t.Helper()
	pub := make(chanPublisher, 64)
	s := New(context.Background(), Settings{
		AccountID:      "acc-1",
		Strategy:       strategy,
		InitialBalance: d("1000"),
		RiskPct:        d("2"),
		QueueSize:      queue,
	}, pub, nil, zap.NewNop())
	if start {
		go s.Worker()
	}
	t.Cleanup(s.Stop)
	return s, pub
}

func waitEvent(t *testing.T, pub chanPublisher) models.TradeEvent {
	t.Helper()
	select {
	case ev := <-pub:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return models.TradeEvent{}
	}
}

func btcSignal(confidence float64) models.Signal {
	return models.Signal{
		Symbol:     "BTC",
		Action:     models.ActionBuy,
		Confidence: confidence,
		Entry:      50000,
		StopLoss:   47500,
		TakeProfit: 55000,
		Reasoning:  "breakout above range",
	}
}

func TestSubmitHighConfidenceOpens(t *testing.T) {
	s, pub := newSession(t, models.StrategyConservative, 0, true)

	s.Submit(btcSignal(96))
	ev := waitEvent(t, pub)
	if ev.Kind != models.EventOpened {
		t.Fatalf("kind=%s reason=%q, want opened", ev.Kind, ev.Reason)
	}
	if !ev.Units.Equal(d("0.0004")) {
		t.Fatalf("units=%s want 0.0004", ev.Units)
	}
	if ev.Reasoning != "breakout above range" || ev.SignalID == "" {
		t.Fatalf("event lost signal context: %+v", ev)
	}

	snap := s.Snapshot()
	if !snap.Balance.Equal(d("980")) {
		t.Fatalf("balance=%s want 980", snap.Balance)
	}
	positions := s.OpenPositions()
	if len(positions) != 1 {
		t.Fatalf("open positions=%d want 1", len(positions))
	}
	p := positions[0]
	if !p.PositionRatio.Equal(d("25")) || p.Leverage != 20 || p.Direction != models.DirectionLong {
		t.Fatalf("policy not recorded on position: %+v", p)
	}
}

func TestSubmitBelowThresholdIsIgnored(t *testing.T) {
	s, pub := newSession(t, models.StrategyConservative, 0, true)

	s.Submit(btcSignal(60))
	ev := waitEvent(t, pub)
	if ev.Kind != models.EventIgnored || ev.Reason != ReasonBelowThreshold {
		t.Fatalf("got %s/%q, want ignored/%q", ev.Kind, ev.Reason, ReasonBelowThreshold)
	}
	if snap := s.Snapshot(); !snap.Balance.Equal(d("1000")) || snap.TotalTrades != 0 {
		t.Fatalf("ledger changed on rejection: %+v", snap)
	}
}

func TestAggressiveAdmitsSeventy(t *testing.T) {
	s, pub := newSession(t, models.StrategyAggressive, 0, true)

	s.Submit(btcSignal(72))
	if ev := waitEvent(t, pub); ev.Kind != models.EventOpened {
		t.Fatalf("kind=%s reason=%q, want opened", ev.Kind, ev.Reason)
	}
	if p := s.OpenPositions()[0]; !p.PositionRatio.Equal(d("8")) {
		t.Fatalf("ratio=%s want 8", p.PositionRatio)
	}
}

func TestInvalidSignalRejected(t *testing.T) {
	s, pub := newSession(t, models.StrategyAggressive, 0, true)

	sig := btcSignal(99)
	sig.StopLoss = 51000
	s.Submit(sig)
	ev := waitEvent(t, pub)
	if ev.Kind != models.EventRejected || !strings.Contains(ev.Reason, "buy requires") {
		t.Fatalf("got %s/%q", ev.Kind, ev.Reason)
	}
}

func TestDuplicateSymbolAlwaysRejected(t *testing.T) {
	s, pub := newSession(t, models.StrategyAggressive, 0, true)

	s.Submit(btcSignal(96))
	if ev := waitEvent(t, pub); ev.Kind != models.EventOpened {
		t.Fatalf("first signal not opened: %s", ev.Kind)
	}

	dup := btcSignal(100)
	s.Submit(dup)
	weak := btcSignal(10) // would be ignored by policy, duplicate check wins
	s.Submit(weak)

	for i := 0; i < 2; i++ {
		ev := waitEvent(t, pub)
		if ev.Kind != models.EventRejected || ev.Reason != ReasonDuplicatePosition {
			t.Fatalf("got %s/%q, want duplicate position", ev.Kind, ev.Reason)
		}
	}
	if n := len(s.OpenPositions()); n != 1 {
		t.Fatalf("open positions=%d want 1", n)
	}
}

func TestRedeliveredSignalIgnoredSilently(t *testing.T) {
	s, pub := newSession(t, models.StrategyConservative, 0, true)

	sig := btcSignal(60)
	sig.ID = "sig-42"
	s.Submit(sig)
	if ev := waitEvent(t, pub); ev.Kind != models.EventIgnored {
		t.Fatalf("kind=%s want ignored", ev.Kind)
	}

	s.Submit(sig) // redelivery: no event at all
	marker := btcSignal(96)
	marker.ID = "sig-43"
	s.Submit(marker)

	ev := waitEvent(t, pub)
	if ev.SignalID != "sig-43" || ev.Kind != models.EventOpened {
		t.Fatalf("redelivery produced an event: %+v", ev)
	}
}

func TestClosePositionRealizesPnL(t *testing.T) {
	s, pub := newSession(t, models.StrategyConservative, 0, true)

	s.Submit(btcSignal(96))
	opened := waitEvent(t, pub)

	trade, err := s.ClosePosition(context.Background(), opened.PositionID, d("52000"))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !trade.RealizedPnL.Equal(d("0.8")) || !trade.Credited.Equal(d("20.8")) {
		t.Fatalf("pnl=%s credited=%s", trade.RealizedPnL, trade.Credited)
	}
	if b := s.Snapshot().Balance; !b.Equal(d("1000.8")) {
		t.Fatalf("balance=%s want 1000.8", b)
	}

	ev := waitEvent(t, pub)
	if ev.Kind != models.EventClosed || !ev.PnL.Equal(d("0.8")) || ev.Reason != ReasonManualClose {
		t.Fatalf("close event %+v", ev)
	}
}

func TestCloseUnknownPosition(t *testing.T) {
	s, _ := newSession(t, models.StrategyConservative, 0, true)

	_, err := s.ClosePosition(context.Background(), "missing", d("1"))
	if !errors.Is(err, ledger.ErrPositionNotFound) {
		t.Fatalf("want ErrPositionNotFound, got %v", err)
	}
}

func TestShortClosedAboveEntryLoses(t *testing.T) {
	s, pub := newSession(t, models.StrategyConservative, 0, true)

	s.Submit(models.Signal{
		Symbol: "ETH", Action: models.ActionSell, Confidence: 91,
		Entry: 2000, StopLoss: 2100, TakeProfit: 1800,
	})
	opened := waitEvent(t, pub)
	if opened.Kind != models.EventOpened || opened.Direction != models.DirectionShort {
		t.Fatalf("short not opened: %+v", opened)
	}
	trade, err := s.ClosePosition(context.Background(), opened.PositionID, d("2050"))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !trade.RealizedPnL.IsNegative() {
		t.Fatalf("short closed above entry pnl=%s", trade.RealizedPnL)
	}
}

func TestStopLossTriggerClosesThroughQueue(t *testing.T) {
	s, pub := newSession(t, models.StrategyConservative, 0, true)

	s.Submit(btcSignal(96))
	waitEvent(t, pub)

	s.UpdatePrice("BTC", d("47000"))
	s.UpdatePrice("BTC", d("46900")) // already closing, no second close

	ev := waitEvent(t, pub)
	if ev.Kind != models.EventClosed || ev.Reason != ledger.ReasonStopLoss {
		t.Fatalf("got %+v", ev)
	}
	// (47500 - 50000) * 0.0004
	if !ev.PnL.Equal(d("-1")) {
		t.Fatalf("pnl=%s want -1", ev.PnL)
	}
	if b := s.Snapshot().Balance; !b.Equal(d("999")) {
		t.Fatalf("balance=%s want 999", b)
	}

	select {
	case extra := <-pub:
		if extra.Kind == models.EventClosed {
			t.Fatalf("position closed twice")
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestQueueFullRejects(t *testing.T) {
	s, pub := newSession(t, models.StrategyConservative, 1, false)

	s.Submit(btcSignal(96))
	s.Submit(btcSignal(97))

	ev := waitEvent(t, pub)
	if ev.Kind != models.EventRejected || ev.Reason != ReasonQueueFull {
		t.Fatalf("got %s/%q want queue full", ev.Kind, ev.Reason)
	}
}

func TestBalanceMatchesRealizedAfterSequence(t *testing.T) {
	s, pub := newSession(t, models.StrategyAggressive, 0, true)
	symbols := []string{"BTC", "ETH", "SOL", "XRP", "ADA"}
	exits := []string{"50500", "49250.5", "51000", "48000", "50000"}

	realized := decimal.Zero
	for i, sym := range symbols {
		sig := btcSignal(80 + float64(i)*4)
		sig.Symbol = sym
		s.Submit(sig)
		opened := waitEvent(t, pub)
		if opened.Kind != models.EventOpened {
			t.Fatalf("%s: %s/%q", sym, opened.Kind, opened.Reason)
		}
		trade, err := s.ClosePosition(context.Background(), opened.PositionID, d(exits[i]))
		if err != nil {
			t.Fatalf("close %s: %v", sym, err)
		}
		waitEvent(t, pub)
		realized = realized.Add(trade.RealizedPnL)
	}

	if b := s.Snapshot().Balance; !b.Equal(d("1000").Add(realized)) {
		t.Fatalf("balance=%s want %s", b, d("1000").Add(realized))
	}
}

func TestSymbolVariantsShareOnePosition(t *testing.T) {
	s, pub := newSession(t, models.StrategyConservative, 0, true)

	for i, sym := range []string{"BTC", "btc", " BTC\t"} {
		sig := btcSignal(96)
		sig.Symbol = sym
		s.Submit(sig)

		ev := waitEvent(t, pub)
		want := models.EventRejected
		if i == 0 {
			want = models.EventOpened
		}
		if ev.Kind != want {
			t.Fatalf("%q: kind=%s want %s", sym, ev.Kind, want)
		}
		if i > 0 && ev.Reason != ReasonDuplicatePosition {
			t.Fatalf("%q: reason=%q", sym, ev.Reason)
		}
	}

	open := s.OpenPositions()
	if len(open) != 1 || open[0].Symbol != "BTC" {
		t.Fatalf("open positions: %+v", open)
	}

	// marks in any spelling reach the position
	s.UpdatePrice("btc", d("51000"))
	if p := s.OpenPositions()[0]; !p.CurrentPrice.Equal(d("51000")) {
		t.Fatalf("mark not applied: %s", p.CurrentPrice)
	}
}

func TestFullRiskFractionalEntryOpens(t *testing.T) {
	pub := make(chanPublisher, 8)
	s := New(context.Background(), Settings{
		AccountID:      "acc-1",
		Strategy:       models.StrategyConservative,
		InitialBalance: d("1000"),
		RiskPct:        d("100"),
	}, pub, nil, zap.NewNop())
	go s.Worker()
	t.Cleanup(s.Stop)

	s.Submit(models.Signal{
		Symbol:     "ETH",
		Action:     models.ActionBuy,
		Confidence: 96,
		Entry:      1.5,
		StopLoss:   1,
		TakeProfit: 2,
	})

	ev := waitEvent(t, pub)
	if ev.Kind != models.EventOpened {
		t.Fatalf("got %s/%q want opened", ev.Kind, ev.Reason)
	}
	if b := s.Snapshot().Balance; b.IsNegative() {
		t.Fatalf("balance went negative: %s", b)
	}
}

// stallingStore answers only when the caller gives up.
type stallingStore struct{}

func (stallingStore) Seen(ctx context.Context, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestSlowDedupeStoreDoesNotStallWorker(t *testing.T) {
	s, pub := newSession(t, models.StrategyConservative, 0, true)

	s.Submit(btcSignal(96))
	opened := waitEvent(t, pub)
	if opened.Kind != models.EventOpened {
		t.Fatalf("got %s/%q want opened", opened.Kind, opened.Reason)
	}

	s.seen = stallingStore{}
	eth := btcSignal(96)
	eth.Symbol = "ETH"
	eth.Entry, eth.StopLoss, eth.TakeProfit = 3000, 2800, 3400
	submitted := make(chan struct{})
	go func() {
		s.Submit(eth)
		close(submitted)
	}()

	start := time.Now()
	if _, err := s.ClosePosition(context.Background(), opened.PositionID, d("50500")); err != nil {
		t.Fatalf("close: %v", err)
	}
	if el := time.Since(start); el >= dedupeTimeout {
		t.Fatalf("close waited %s behind the dedupe lookup", el)
	}
	if ev := waitEvent(t, pub); ev.Kind != models.EventClosed {
		t.Fatalf("got %s want closed", ev.Kind)
	}

	// the store failure is not fatal: the signal still goes through
	<-submitted
	if ev := waitEvent(t, pub); ev.Kind != models.EventOpened || ev.Symbol != "ETH" {
		t.Fatalf("got %s/%s/%q want ETH opened", ev.Kind, ev.Symbol, ev.Reason)
	}
}
