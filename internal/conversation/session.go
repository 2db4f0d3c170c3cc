package conversation

import (
	"sync"

	"github.com/algo-rangers/support-service/internal/model"
)

// pendingTicket is the transient per-session ticket offer awaiting a yes/no.
// A new offer overwrites an existing one; offers are never queued.
type pendingTicket struct {
	description string
	category    string
	priority    model.TicketPriority
}

// session holds the per-session mutable state. Its mutex serializes turns for
// one session; distinct sessions proceed independently.
type session struct {
	mu      sync.Mutex
	pending *pendingTicket
}

type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

func (r *sessionRegistry) get(sessionID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &session{}
		r.sessions[sessionID] = s
	}
	return s
}
