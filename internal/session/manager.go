package session

import (
	"sync"

	"github.com/quizgenius/backend/internal/models"
)

// Manager owns the live sessions. Sessions are explicitly created and torn
// down here; nothing hands out a process-wide singleton.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a new session for the given settings.
func (m *Manager) Create(settings models.QuizSettings) *Session {
	s := New(settings)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete closes the session and removes it. Streaming callbacks still in
// flight hit the closed guard and become no-ops.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}
