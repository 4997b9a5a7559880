package customize

import "sync"

// Session supplies the request-scoped inputs the overlay depends on: the
// active scope and the staged values the client submitted this session.
// Implementations replace ambient request globals so the core can be driven
// entirely through explicit state.
type Session interface {
	// ScopeID identifies the tenant/site scope the session belongs to.
	ScopeID() string
	// StagedValue returns the raw staged value for the setting identifier.
	// The boolean distinguishes "nothing submitted" from a staged null or
	// delete marker, which arrive as (nil, true) and (false, true).
	StagedValue(id string) (any, bool)
}

// MemorySession is a map-backed Session for tests, examples, and hosts that
// collect staged values themselves.
type MemorySession struct {
	scope string

	mu     sync.RWMutex
	staged map[string]any
}

// NewMemorySession builds a session for scope seeded with staged values.
func NewMemorySession(scope string, staged map[string]any) *MemorySession {
	values := make(map[string]any, len(staged))
	for id, value := range staged {
		values[id] = value
	}
	return &MemorySession{scope: scope, staged: values}
}

// ScopeID implements Session.
func (s *MemorySession) ScopeID() string {
	return s.scope
}

// StagedValue implements Session.
func (s *MemorySession) StagedValue(id string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.staged[id]
	return value, ok
}

// Stage records a staged value for the setting identifier.
func (s *MemorySession) Stage(id string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staged == nil {
		s.staged = map[string]any{}
	}
	s.staged[id] = value
}

// Discard removes a staged value.
func (s *MemorySession) Discard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staged, id)
}
