package authsession

import (
	"context"
	"time"
)

// The refresh scheduler keeps the access token from being used past
// expiry without requiring the host to poll. It runs only while the
// session is authenticated: started on every false-to-true transition,
// cancelled the moment authentication drops or the manager closes.

// startScheduler launches the periodic expiry check. Calling it while a
// scheduler is already running, or after Close, does nothing.
func (m *Manager) startScheduler() {
	m.schedMu.Lock()
	defer m.schedMu.Unlock()

	if m.schedStop != nil || m.closed {
		return
	}
	stop := make(chan struct{})
	m.schedStop = stop
	go m.refreshLoop(stop)
}

// stopScheduler cancels the running scheduler, if any. It signals and
// returns without waiting: the loop may be mid-check, and its result is
// neutralized by the generation guard rather than by joining the
// goroutine (the loop itself triggers a forced logout, which lands
// here).
func (m *Manager) stopScheduler() {
	m.schedMu.Lock()
	stop := m.schedStop
	m.schedStop = nil
	m.schedMu.Unlock()

	if stop != nil {
		close(stop)
	}
}

func (m *Manager) refreshLoop(stop chan struct{}) {
	// Evaluate once immediately: a hydrated session may already hold an
	// expired token.
	m.checkExpiry(stop)

	ticker := time.NewTicker(m.refreshCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.checkExpiry(stop)
		}
	}
}

// checkExpiry runs one scheduler tick: if the token is expired per the
// storage collaborator's predicate, refresh it; if that refresh fails,
// force a full logout rather than leave a stale credential in the
// session. The freshest credential exchange already failed, so the
// failure is treated as unrecoverable, not retryable.
func (m *Manager) checkExpiry(stop chan struct{}) {
	select {
	case <-stop:
		return
	default:
	}

	snapshot := m.store.Snapshot()
	if !snapshot.IsAuthenticated || snapshot.Token == nil {
		return
	}
	if !m.storageRepo.IsExpired(*snapshot.Token) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshCallTimeout)
	defer cancel()

	if err := m.RefreshToken(ctx); err != nil {
		m.log.Warn().Err(err).Msg("scheduled refresh failed, forcing logout")
		m.Logout()
	}
}
