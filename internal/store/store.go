// Package store holds the process-wide broadcast state. The orchestrator is
// the only writer; the UI and app layer read snapshots.
package store

import (
	"sync"

	"podium/internal/domain"
	"podium/internal/ports"
)

// Store is the shared session state container.
type Store struct {
	mu sync.RWMutex

	phase            domain.SessionPhase
	session          *domain.Session
	room             ports.RoomHandle
	micEnabled       bool
	stopping         bool
	lastError        string
	pendingSessionID string
}

func New() *Store {
	return &Store{phase: domain.PhaseIdle}
}

// Snapshot returns the UI-facing view of the current state.
func (s *Store) Snapshot() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := domain.Status{
		Phase:            s.phase,
		Live:             s.phase == domain.PhaseLive,
		MicEnabled:       s.micEnabled,
		Stopping:         s.stopping,
		Error:            s.lastError,
		PendingSessionID: s.pendingSessionID,
	}
	if s.session != nil {
		copied := *s.session
		status.Session = &copied
	}
	return status
}

// Phase returns the current session phase.
func (s *Store) Phase() domain.SessionPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Session returns a copy of the active session record, or nil.
func (s *Store) Session() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// Room returns the active room handle, or nil.
func (s *Store) Room() ports.RoomHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

// MicEnabled reports the current microphone state.
func (s *Store) MicEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.micEnabled
}

// SetPhase moves the state machine to phase.
func (s *Store) SetPhase(phase domain.SessionPhase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

// BeginBroadcast installs the session record and room handle for a broadcast
// that just connected. Phase is left untouched; the orchestrator decides
// waiting_agent vs live after the presence snapshot.
func (s *Store) BeginBroadcast(session domain.Session, room ports.RoomHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := session
	s.session = &copied
	s.room = room
	s.micEnabled = false
}

// EndBroadcast clears all broadcast state and returns to idle.
func (s *Store) EndBroadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = domain.PhaseIdle
	s.session = nil
	s.room = nil
	s.micEnabled = false
	s.stopping = false
}

// SetMicEnabled records the authoritative microphone state.
func (s *Store) SetMicEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.micEnabled = enabled
}

// SetStopping flags an in-flight stop so the UI can disable controls.
func (s *Store) SetStopping(stopping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = stopping
}

// SetError records the single user-visible error. It stays until dismissed
// or replaced.
func (s *Store) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = message
}

// ClearError dismisses the current error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = ""
}

// SetConflict records the id of the pre-existing active session so the UI
// can offer a force-restart.
func (s *Store) SetConflict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSessionID = sessionID
}

// ClearConflict dismisses the force-restart prompt.
func (s *Store) ClearConflict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSessionID = ""
}
