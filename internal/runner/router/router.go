package router

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paper_trader/internal/models"
	"paper_trader/internal/runner/dedupe"
	"paper_trader/internal/runner/sessions"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already enabled")
)

// Router holds the active accounts and routes signals, closes and marks to them.
// Sessions share nothing but the event bus and the dedupe store.
type Router struct {
	ctx context.Context

	mu       sync.RWMutex
	accounts map[string]*sessions.AccountSession // accountID -> session

	defaults sessions.Settings
	events   sessions.Publisher
	seen     dedupe.Store
	log      *zap.Logger
}

func NewRouter(ctx context.Context, defaults sessions.Settings, events sessions.Publisher, seen dedupe.Store, log *zap.Logger) *Router {
	return &Router{
		ctx:      ctx,
		accounts: make(map[string]*sessions.AccountSession),
		defaults: defaults,
		events:   events,
		seen:     seen,
		log:      log,
	}
}

// Broadcast fans a feed signal out to every account. All accounts see the same signal id.
func (r *Router) Broadcast(sig models.Signal) {
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sess := range r.accounts {
		sess.Submit(sig)
	}
}

// SubmitSignal routes a signal to one account.
func (r *Router) SubmitSignal(accountID string, sig models.Signal) error {
	sess, ok := r.GetSession(accountID)
	if !ok {
		return ErrAccountNotFound
	}
	sess.Submit(sig)
	return nil
}

func (r *Router) GetSession(accountID string) (*sessions.AccountSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.accounts[accountID]
	return s, ok
}

// Accounts returns the enabled account ids, sorted.
func (r *Router) Accounts() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.accounts))
	for id := range r.accounts {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (r *Router) list() []*sessions.AccountSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*sessions.AccountSession, 0, len(r.accounts))
	for _, s := range r.accounts {
		out = append(out, s)
	}
	return out
}
