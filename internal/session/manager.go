package session

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// Manager holds live sessions keyed by ID.
type Manager struct {
	mu       sync.RWMutex
	checker  Checker
	debounce time.Duration
	sessions map[string]*Controller
}

// NewManager creates a session manager. A zero debounce selects
// DefaultDebounce for every session.
func NewManager(checker Checker, debounce time.Duration) *Manager {
	return &Manager{
		checker:  checker,
		debounce: debounce,
		sessions: make(map[string]*Controller),
	}
}

// Create starts a new session with the given style and returns its ID.
func (m *Manager) Create(style string) (string, *Controller) {
	id := newSessionID()
	ctrl := NewController(m.checker, style, m.debounce)
	m.mu.Lock()
	m.sessions[id] = ctrl
	m.mu.Unlock()
	return id, ctrl
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctrl, ok := m.sessions[id]
	return ctrl, ok
}

// Delete closes and removes a session. Deleting an unknown ID is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	ctrl := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ctrl != nil {
		ctrl.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// newSessionID generates a RFC 4122 v4 UUID
func newSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
