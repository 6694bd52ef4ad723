package router

import "paper_trader/internal/runner/sessions"

// DisableAccount stops the account worker and forgets the session.
func (r *Router) DisableAccount(accountID string) error {
	r.mu.Lock()
	sess, ok := r.accounts[accountID]
	if !ok {
		r.mu.Unlock()
		return ErrAccountNotFound
	}
	delete(r.accounts, accountID)
	r.mu.Unlock()

	sess.Stop()
	return nil
}

// StopAll stops every session.
func (r *Router) StopAll() {
	r.mu.Lock()
	all := r.accounts
	r.accounts = make(map[string]*sessions.AccountSession)
	r.mu.Unlock()

	for _, s := range all {
		s.Stop()
	}
}
