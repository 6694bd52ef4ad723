package router

import (
	"fmt"

	"paper_trader/internal/models"
	"paper_trader/internal/runner/sessions"
)

// EnableAccount starts a session for the account, filling unset settings from defaults.
func (r *Router) EnableAccount(st sessions.Settings) (*sessions.AccountSession, error) {
	if st.AccountID == "" {
		return nil, fmt.Errorf("empty account id")
	}
	if st.Strategy == "" {
		st.Strategy = r.defaults.Strategy
	}
	if _, ok := models.Presets[st.Strategy]; !ok {
		return nil, fmt.Errorf("account %s: unknown strategy %q", st.AccountID, st.Strategy)
	}
	if st.InitialBalance.IsZero() {
		st.InitialBalance = r.defaults.InitialBalance
	}
	if st.RiskPct.IsZero() {
		st.RiskPct = r.defaults.RiskPct
	}
	if st.QueueSize <= 0 {
		st.QueueSize = r.defaults.QueueSize
	}

	r.mu.Lock()
	if _, ok := r.accounts[st.AccountID]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, st.AccountID)
	}
	sess := sessions.New(r.ctx, st, r.events, r.seen, r.log)
	r.accounts[st.AccountID] = sess
	r.mu.Unlock()

	// worker starts outside the router lock
	go sess.Worker()
	return sess, nil
}

// SetStrategy switches the account's admission policy.
func (r *Router) SetStrategy(accountID string, st models.Strategy) error {
	if _, ok := models.Presets[st]; !ok {
		return fmt.Errorf("unknown strategy %q", st)
	}
	sess, ok := r.GetSession(accountID)
	if !ok {
		return ErrAccountNotFound
	}
	sess.SetStrategy(st)
	return nil
}
