// Package events delivers trade events from the account workers to registered consumers.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"paper_trader/internal/models"
)

// Consumer handles one event. Errors are logged and never reach the publisher.
type Consumer func(ctx context.Context, ev models.TradeEvent) error

type subscriber struct {
	name string
	fn   Consumer
}

// Bus is a buffered fan-out owned by the engine. Publish never blocks the ledger path.
type Bus struct {
	log *zap.Logger
	ch  chan models.TradeEvent

	mu   sync.RWMutex
	subs []subscriber
}

func NewBus(size int, log *zap.Logger) *Bus {
	if size <= 0 {
		size = 1024
	}
	return &Bus{
		log: log,
		ch:  make(chan models.TradeEvent, size),
	}
}

// Subscribe registers a named consumer. Consumers run in registration order.
func (b *Bus) Subscribe(name string, fn Consumer) {
	b.mu.Lock()
	b.subs = append(b.subs, subscriber{name: name, fn: fn})
	b.mu.Unlock()
}

// Publish queues the event, dropping it when the buffer is full.
func (b *Bus) Publish(ev models.TradeEvent) {
	select {
	case b.ch <- ev:
	default:
		b.log.Warn("event bus full, event dropped",
			zap.String("kind", string(ev.Kind)),
			zap.String("account", ev.AccountID),
			zap.String("symbol", ev.Symbol),
		)
	}
}

// Run dispatches events until ctx is done.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.ch:
			b.dispatch(ctx, ev)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, ev models.TradeEvent) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := b.call(ctx, s, ev); err != nil {
			b.log.Warn("event consumer failed",
				zap.String("consumer", s.name),
				zap.String("kind", string(ev.Kind)),
				zap.String("event", ev.ID),
				zap.Error(err),
			)
		}
	}
}

// call isolates a panicking consumer from the others.
func (b *Bus) call(ctx context.Context, s subscriber, ev models.TradeEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Error("event consumer panicked", zap.String("consumer", s.name), zap.Any("panic", p))
		}
	}()
	return s.fn(ctx, ev)
}
