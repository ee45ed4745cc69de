package session

import (
	"errors"
	"sync"
)

// ErrSessionNotFound indicates no live state exists for the session.
var ErrSessionNotFound = errors.New("grading session not found")

// DefaultTotal is the assignment total a new session starts from, matching
// the grader-facing default before the scheme is configured.
const DefaultTotal = 10

// Manager keeps the live state of every open grading session, keyed by
// session identifier. Persistence beyond process lifetime goes through
// snapshots; the manager itself is purely in-memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*State)}
}

// Open creates live state for a session. Opening an already open session
// returns the existing state, so a reconnecting client cannot wipe it.
func (m *Manager) Open(id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[id]; ok {
		return state, nil
	}
	state, err := NewState(DefaultTotal)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = state
	return state, nil
}

// Get returns the live state for a session.
func (m *Manager) Get(id string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

// Close drops the live state for a session. The caller is expected to have
// snapshotted first if the state should survive.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
