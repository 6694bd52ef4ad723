// Package ledger keeps the virtual balance and open positions of one account.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"paper_trader/internal/models"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPositionNotFound    = errors.New("position not found")
	ErrDuplicatePosition   = errors.New("duplicate position id")
	ErrInvalidPosition     = errors.New("invalid position")
)

// Trigger is an open position whose stop-loss or take-profit was crossed by a mark.
type Trigger struct {
	Position  models.Position
	ExitPrice decimal.Decimal
	Reason    string
}

const (
	ReasonStopLoss   = "stop loss"
	ReasonTakeProfit = "take profit"
)

// Ledger tracks balance, realized PnL and open positions. Every method is atomic with
// respect to the others.
type Ledger struct {
	mu sync.Mutex

	id             string
	strategy       models.Strategy
	initialBalance decimal.Decimal
	balance        decimal.Decimal
	totalPnL       decimal.Decimal
	dailyPnL       decimal.Decimal
	dayStart       time.Time
	totalTrades    int
	closedTrades   int
	wins           int

	positions []models.Position // insertion order
}

// New creates a ledger funded with the initial balance.
func New(id string, strategy models.Strategy, initial decimal.Decimal, now time.Time) *Ledger {
	return &Ledger{
		id:             id,
		strategy:       strategy,
		initialBalance: initial,
		balance:        initial,
		dayStart:       dayOf(now),
	}
}

// Open debits the position notional and starts tracking it. Nothing is mutated on error.
func (l *Ledger) Open(p models.Position) error {
	if !p.Size.IsPositive() || !p.EntryPrice.IsPositive() {
		return fmt.Errorf("%w: size=%s entry=%s", ErrInvalidPosition, p.Size, p.EntryPrice)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(p.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicatePosition, p.ID)
	}
	notional := p.Notional()
	if notional.GreaterThan(l.balance) {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, notional, l.balance)
	}

	p.Symbol = models.NormalizeSymbol(p.Symbol)
	if p.CurrentPrice.IsZero() {
		p.CurrentPrice = p.EntryPrice
	}
	p.UnrealizedPnL = p.PnLAt(p.CurrentPrice)

	l.balance = l.balance.Sub(notional)
	l.positions = append(l.positions, p)
	l.totalTrades++
	return nil
}

// Close realizes the position at exitPrice and credits notional plus PnL.
// The realized loss is capped at the notional.
func (l *Ledger) Close(id string, exitPrice decimal.Decimal, at time.Time, reason string) (models.ClosedTrade, error) {
	if !exitPrice.IsPositive() {
		return models.ClosedTrade{}, fmt.Errorf("%w: exit price %s", ErrInvalidPosition, exitPrice)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return models.ClosedTrade{}, fmt.Errorf("%w: %s", ErrPositionNotFound, id)
	}
	p := l.positions[i]
	l.positions = append(l.positions[:i], l.positions[i+1:]...)

	pnl := p.PnLAt(exitPrice)
	// a position can lose at most its margin; the balance never goes negative
	if notional := p.Notional(); pnl.LessThan(notional.Neg()) {
		pnl = notional.Neg()
	}
	credit := p.Notional().Add(pnl)

	l.rollDay(at)
	l.balance = l.balance.Add(credit)
	l.totalPnL = l.totalPnL.Add(pnl)
	l.dailyPnL = l.dailyPnL.Add(pnl)
	l.closedTrades++
	if pnl.IsPositive() {
		l.wins++
	}

	p.CurrentPrice = exitPrice
	p.UnrealizedPnL = decimal.Zero
	return models.ClosedTrade{
		Position:    p,
		ExitPrice:   exitPrice,
		RealizedPnL: pnl,
		Credited:    credit,
		CloseTime:   at,
		Reason:      reason,
	}, nil
}

// UpdatePrice marks every open position in symbol and returns the ones whose
// stop-loss or take-profit the price has crossed.
func (l *Ledger) UpdatePrice(symbol string, price decimal.Decimal) []Trigger {
	if !price.IsPositive() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	symbol = models.NormalizeSymbol(symbol)
	var out []Trigger
	for i := range l.positions {
		p := &l.positions[i]
		if p.Symbol != symbol {
			continue
		}
		p.CurrentPrice = price
		p.UnrealizedPnL = p.PnLAt(price)

		if t, ok := crossed(*p, price); ok {
			out = append(out, t)
		}
	}
	return out
}

func crossed(p models.Position, price decimal.Decimal) (Trigger, bool) {
	sl, tp := p.StopLoss, p.TakeProfit
	switch p.Direction {
	case models.DirectionLong:
		if sl.IsPositive() && price.LessThanOrEqual(sl) {
			return Trigger{Position: p, ExitPrice: sl, Reason: ReasonStopLoss}, true
		}
		if tp.IsPositive() && price.GreaterThanOrEqual(tp) {
			return Trigger{Position: p, ExitPrice: tp, Reason: ReasonTakeProfit}, true
		}
	case models.DirectionShort:
		if sl.IsPositive() && price.GreaterThanOrEqual(sl) {
			return Trigger{Position: p, ExitPrice: sl, Reason: ReasonStopLoss}, true
		}
		if tp.IsPositive() && price.LessThanOrEqual(tp) {
			return Trigger{Position: p, ExitPrice: tp, Reason: ReasonTakeProfit}, true
		}
	}
	return Trigger{}, false
}

// HasOpen reports whether any position in symbol is open.
func (l *Ledger) HasOpen(symbol string) bool {
	symbol = models.NormalizeSymbol(symbol)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.positions {
		if p.Symbol == symbol {
			return true
		}
	}
	return false
}

// Balance returns the free balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// ResetDaily starts a new daily PnL window if at falls on a later UTC day.
func (l *Ledger) ResetDaily(at time.Time) {
	l.mu.Lock()
	l.rollDay(at)
	l.mu.Unlock()
}

// SetStrategy switches the admission policy recorded on the account.
func (l *Ledger) SetStrategy(s models.Strategy) {
	l.mu.Lock()
	l.strategy = s
	l.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the account.
func (l *Ledger) Snapshot() models.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	var winRate float64
	if l.closedTrades > 0 {
		winRate = float64(l.wins) / float64(l.closedTrades)
	}
	return models.Account{
		ID:             l.id,
		Strategy:       l.strategy,
		InitialBalance: l.initialBalance,
		Balance:        l.balance,
		TotalPnL:       l.totalPnL,
		DailyPnL:       l.dailyPnL,
		TotalTrades:    l.totalTrades,
		ClosedTrades:   l.closedTrades,
		Wins:           l.wins,
		WinRate:        winRate,
		OpenPositions:  len(l.positions),
		DayStart:       l.dayStart,
	}
}

// OpenPositions returns copies of the open positions in insertion order.
func (l *Ledger) OpenPositions() []models.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// ----- helpers under l.mu -----

func (l *Ledger) indexOf(id string) int {
	for i := range l.positions {
		if l.positions[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) rollDay(at time.Time) {
	if d := dayOf(at); d.After(l.dayStart) {
		l.dayStart = d
		l.dailyPnL = decimal.Zero
	}
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
