package agents

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sender is the write side of an agent session.
type sender interface {
	Send(cmd Command) error
	Close()
}

type connection struct {
	sender   sender
	lastSeen time.Time
}

// Registry tracks which servers have a live agent session. It is the single
// source of connectivity truth: every component that cares whether a server
// is reachable asks here instead of caching state of its own. Safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*connection

	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]*connection),

		logger: logger,
	}
}

// Connect registers a session for a server. An existing session for the
// same server is closed and replaced: the newest connection wins, matching
// agent restart behaviour.
func (r *Registry) Connect(serverID uuid.UUID, s sender) {
	r.mu.Lock()
	old, ok := r.conns[serverID]
	r.conns[serverID] = &connection{sender: s, lastSeen: time.Now()}
	r.mu.Unlock()

	if ok {
		old.sender.Close()
		r.logger.Warn("replaced existing agent session", zap.String("server_id", serverID.String()))
	}

	r.logger.Info("agent connected", zap.String("server_id", serverID.String()))
}

// Disconnect removes a session, but only if it is still the current one.
// A stale session closing must not evict its replacement.
func (r *Registry) Disconnect(serverID uuid.UUID, s sender) {
	r.mu.Lock()
	current, ok := r.conns[serverID]
	if ok && current.sender == s {
		delete(r.conns, serverID)
	}
	r.mu.Unlock()

	if ok && current.sender == s {
		r.logger.Info("agent disconnected", zap.String("server_id", serverID.String()))
	}
}

func (r *Registry) IsConnected(serverID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[serverID]
	return ok
}

// Touch stamps the last-seen time for a server, called on every inbound
// message from its agent.
func (r *Registry) Touch(serverID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[serverID]; ok {
		conn.lastSeen = time.Now()
	}
}

// Connection reports the liveness of one server's agent.
func (r *Registry) Connection(serverID uuid.UUID) AgentConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[serverID]
	if !ok {
		return AgentConnection{ServerID: serverID, Connected: false}
	}

	return AgentConnection{ServerID: serverID, Connected: true, LastSeen: conn.lastSeen}
}

// Connections lists all live agent connections.
func (r *Registry) Connections() []AgentConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]AgentConnection, 0, len(r.conns))
	for serverID, conn := range r.conns {
		result = append(result, AgentConnection{
			ServerID:  serverID,
			Connected: true,
			LastSeen:  conn.lastSeen,
		})
	}

	return result
}

// sender returns the current session for a server, if any.
func (r *Registry) senderFor(serverID uuid.UUID) (sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[serverID]
	if !ok {
		return nil, false
	}

	return conn.sender, true
}
