package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinela/internal/domain/deviation"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one logged-in client: its identity, immutable for the session
// lifetime, plus the staged-edit overlay it owns. Sessions never share state.
type Session struct {
	Token     string
	User      deviation.User
	CreatedAt time.Time
	Edits     *Overlay
}

// Manager hands out and resolves session tokens.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create opens a session for an authenticated user.
func (m *Manager) Create(user deviation.User) *Session {
	s := &Session{
		Token:     uuid.NewString(),
		User:      user,
		CreatedAt: time.Now(),
		Edits:     NewOverlay(),
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
