package main

import (
	"sync"
	"time"
)

const maxSessions = 100

// SessionIdleTimeout is how long an empty session survives before the
// janitor reclaims it. A var so tests can shrink it.
var SessionIdleTimeout = 30 * time.Minute

// Session represents a game session that players can join
type Session struct {
	ID   string
	Name string
	Game *Game

	mu         sync.Mutex
	lastActive time.Time
}

// MarkActive refreshes the idle clock.
func (s *Session) MarkActive() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a new SessionManager and starts the idle janitor.
func NewSessionManager() *SessionManager {
	sm := &SessionManager{
		sessions: make(map[string]*Session),
	}
	go sm.janitor()
	return sm
}

// CreateSession creates a new game session around a campaign seed. A zero
// seed picks one from the clock. Returns nil if the session limit is reached.
func (sm *SessionManager) CreateSession(name string, seed uint32) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	if seed == 0 {
		seed = uint32(time.Now().UnixNano())
	}
	sess := &Session{
		ID:         GenerateUUID(),
		Name:       name,
		Game:       NewGame(seed),
		lastActive: time.Now(),
	}
	sm.sessions[sess.ID] = sess
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// RemovePlayer removes a player from a session. Empty sessions linger until
// the idle timeout so a disconnected player can rejoin a fresh campaign.
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.Game.RemovePlayer(playerID)
	sess.MarkActive()
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
		})
	}
	return list
}

// janitor sweeps empty sessions that have sat idle past the timeout.
func (sm *SessionManager) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-SessionIdleTimeout)
		sm.mu.Lock()
		for id, sess := range sm.sessions {
			if sess.Game.PlayerCount() == 0 && sess.idleSince().Before(cutoff) {
				delete(sm.sessions, id)
			}
		}
		sm.mu.Unlock()
	}
}
