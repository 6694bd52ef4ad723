package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trader/internal/ledger"
	"paper_trader/internal/models"
	"paper_trader/internal/runner/dedupe"
)

var ErrSessionStopped = errors.New("account session stopped")

// dedupeTimeout bounds a redelivery lookup so a slow store never stalls intake.
const dedupeTimeout = 500 * time.Millisecond

// Publisher receives every trade event emitted by the session.
type Publisher interface {
	Publish(ev models.TradeEvent)
}

// Settings configure one virtual account.
type Settings struct {
	AccountID      string
	Strategy       models.Strategy
	InitialBalance decimal.Decimal
	RiskPct        decimal.Decimal // per-trade capital at risk, % of balance
	QueueSize      int
}

type command struct {
	signal *models.Signal
	close  *closeRequest
}

type closeRequest struct {
	positionID string
	exitPrice  decimal.Decimal
	reason     string
	reply      chan closeResult // nil for monitor closes
}

type closeResult struct {
	trade models.ClosedTrade
	err   error
}

// AccountSession is the single owner of one account: every open and close goes through
// its queue and is applied by one worker goroutine.
type AccountSession struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	mu sync.Mutex // strategy, closing

	AccountID string
	settings  Settings
	strategy  models.Strategy

	Ledger *ledger.Ledger
	queue  chan command

	// positions with a close already queued by the monitor
	closing map[string]bool

	events Publisher
	seen   dedupe.Store
	log    *zap.Logger
	now    func() time.Time
}

// New builds a session. Call Worker in its own goroutine to start processing.
func New(parent context.Context, st Settings, events Publisher, seen dedupe.Store, log *zap.Logger) *AccountSession {
	if st.QueueSize <= 0 {
		st.QueueSize = 64
	}
	if seen == nil {
		seen = dedupe.NewMemory(time.Hour)
	}
	ctx, cancel := context.WithCancel(parent)
	now := time.Now

	return &AccountSession{
		Ctx:       ctx,
		Cancel:    cancel,
		AccountID: st.AccountID,
		settings:  st,
		strategy:  st.Strategy,
		Ledger:    ledger.New(st.AccountID, st.Strategy, st.InitialBalance, now()),
		queue:     make(chan command, st.QueueSize),
		closing:   make(map[string]bool),
		events:    events,
		seen:      seen,
		log:       log.With(zap.String("account", st.AccountID)),
		now:       now,
	}
}

// Submit queues a signal. The outcome is observed through events only.
// A redelivered signal id is dropped without an event.
func (s *AccountSession) Submit(sig models.Signal) {
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = s.now()
	}
	sig.Symbol = models.NormalizeSymbol(sig.Symbol)

	select {
	case <-s.Ctx.Done():
		s.log.Warn("signal for stopped session dropped", zap.String("symbol", sig.Symbol))
		return
	default:
	}

	if s.redelivered(sig) {
		return
	}

	select {
	case s.queue <- command{signal: &sig}:
	default:
		// at-most-once: a full queue is a rejection, the signal is not retried
		s.reject(sig, ReasonQueueFull)
	}
}

// ClosePosition closes an open position at exitPrice and waits for the result.
func (s *AccountSession) ClosePosition(ctx context.Context, positionID string, exitPrice decimal.Decimal) (models.ClosedTrade, error) {
	reply := make(chan closeResult, 1)
	cmd := command{close: &closeRequest{
		positionID: positionID,
		exitPrice:  exitPrice,
		reason:     ReasonManualClose,
		reply:      reply,
	}}

	select {
	case s.queue <- cmd:
	case <-ctx.Done():
		return models.ClosedTrade{}, ctx.Err()
	case <-s.Ctx.Done():
		return models.ClosedTrade{}, ErrSessionStopped
	}

	select {
	case res := <-reply:
		return res.trade, res.err
	case <-ctx.Done():
		return models.ClosedTrade{}, ctx.Err()
	case <-s.Ctx.Done():
		return models.ClosedTrade{}, ErrSessionStopped
	}
}

// Snapshot is a point-in-time copy of the account.
func (s *AccountSession) Snapshot() models.Account {
	return s.Ledger.Snapshot()
}

// OpenPositions is a point-in-time copy of the open positions in insertion order.
func (s *AccountSession) OpenPositions() []models.Position {
	return s.Ledger.OpenPositions()
}

// SetStrategy switches the admission policy for signals processed from now on.
func (s *AccountSession) SetStrategy(st models.Strategy) {
	s.mu.Lock()
	s.strategy = st
	s.mu.Unlock()
	s.Ledger.SetStrategy(st)
}

// Stop cancels the worker. Queued commands are abandoned.
func (s *AccountSession) Stop() {
	s.Cancel()
}

// redelivered runs on the caller's goroutine so a slow store never holds up the worker.
// A store failure is logged and the signal goes on; the duplicate-position rule
// still guards against a double open.
func (s *AccountSession) redelivered(sig models.Signal) bool {
	ctx, cancel := context.WithTimeout(s.Ctx, dedupeTimeout)
	defer cancel()

	seen, err := s.seen.Seen(ctx, s.AccountID+":"+sig.ID)
	if err != nil {
		s.log.Warn("dedupe store failed", zap.String("signal", sig.ID), zap.Error(err))
		return false
	}
	if seen {
		s.log.Debug("redelivered signal ignored", zap.String("signal", sig.ID))
	}
	return seen
}

func (s *AccountSession) currentStrategy() models.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}
