package cache

import (
	"sync"
	"time"
)

// DefaultSessionTimeout bounds how long an edit session can defer
// invalidation before it is ended on the next call.
const DefaultSessionTimeout = 5 * time.Minute

// Session is one inline-edit window: while the note EditedID is being
// edited inside a view owned by OriginatingID, invalidations targeting
// the originating note are deferred so its render does not flicker on
// every keystroke.
type Session struct {
	EditedID      string
	OriginatingID string
	StartedAt     time.Time
}

// SessionManager holds at most one active edit session and the
// invalidations queued behind it. Queued invalidations are applied in
// arrival order when the session ends; sessions are never silently
// dropped. Safe for concurrent use.
type SessionManager struct {
	mu        sync.Mutex
	timeout   time.Duration
	active    *Session
	queued    []func()
	listeners []func()

	// Clock is called for timestamps. Tests replace it.
	Clock func() time.Time
}

// NewSessionManager creates an idle manager. A non-positive timeout
// selects DefaultSessionTimeout.
func NewSessionManager(timeout time.Duration) *SessionManager {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &SessionManager{timeout: timeout, Clock: time.Now}
}

// Begin starts a session for an inline edit of editedID inside
// originatingID's view. Any existing session is fully ended first: its
// queue is applied and its listeners notified.
func (m *SessionManager) Begin(editedID, originatingID string) {
	m.mu.Lock()
	queued, listeners := m.endLocked()
	m.active = &Session{
		EditedID:      editedID,
		OriginatingID: originatingID,
		StartedAt:     m.Clock(),
	}
	m.mu.Unlock()
	runAll(queued, listeners)
}

// End closes the active session: queued invalidations are applied in
// arrival order, then listeners are notified. Without an active session
// End does nothing.
func (m *SessionManager) End() {
	m.mu.Lock()
	queued, listeners := m.endLocked()
	m.mu.Unlock()
	runAll(queued, listeners)
}

// Active returns the current session, or nil. An expired session is
// ended before answering.
func (m *SessionManager) Active() *Session {
	m.mu.Lock()
	queued, listeners := m.expireLocked()
	active := m.active
	m.mu.Unlock()
	runAll(queued, listeners)
	return active
}

// Suppressed reports whether invalidations targeting noteID are
// currently deferred.
func (m *SessionManager) Suppressed(noteID string) bool {
	m.mu.Lock()
	queued, listeners := m.expireLocked()
	suppressed := m.active != nil && m.active.OriginatingID == noteID
	m.mu.Unlock()
	runAll(queued, listeners)
	return suppressed
}

// Route runs apply now, unless an active session's originating note is
// noteID, in which case apply is queued until the session ends.
func (m *SessionManager) Route(noteID string, apply func()) {
	m.mu.Lock()
	queued, listeners := m.expireLocked()
	if m.active != nil && m.active.OriginatingID == noteID {
		m.queued = append(m.queued, apply)
		m.mu.Unlock()
		runAll(queued, listeners)
		return
	}
	m.mu.Unlock()
	runAll(queued, listeners)
	apply()
}

// OnEnd registers fn to run after a session ends and its queue drains.
func (m *SessionManager) OnEnd(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// endLocked clears the active session and hands back the work to run
// outside the lock. Queued invalidations may call back into the cache,
// and listeners may call back into the manager.
func (m *SessionManager) endLocked() (queued, listeners []func()) {
	if m.active == nil {
		return nil, nil
	}
	queued = m.queued
	listeners = append([]func(){}, m.listeners...)
	m.active = nil
	m.queued = nil
	return queued, listeners
}

// expireLocked ends the active session if it has outlived the timeout.
func (m *SessionManager) expireLocked() (queued, listeners []func()) {
	if m.active != nil && m.Clock().Sub(m.active.StartedAt) >= m.timeout {
		return m.endLocked()
	}
	return nil, nil
}

func runAll(queued, listeners []func()) {
	for _, fn := range queued {
		fn()
	}
	for _, fn := range listeners {
		fn()
	}
}
