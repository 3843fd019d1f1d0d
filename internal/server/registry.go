// Package server keeps the set of authenticated connections that receive
// broadcasts.
package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ConnID identifies one registered connection. It is generated at
// registration time and never reused.
type ConnID string

// Registry maps connection identifiers to live connections. It holds
// non-owning references: entries are added and removed by the owning Session
// only, never by the Broadcaster.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]Conn
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[ConnID]Conn),
	}
}

// Register inserts conn under a fresh identifier and returns it.
func (r *Registry) Register(conn Conn) ConnID {
	id := ConnID(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[id] = conn
	return id
}

// Deregister removes id and reports whether it was present. Removing an
// absent id is a no-op.
func (r *Registry) Deregister(id ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	return true
}

// Snapshot returns a point-in-time copy of the registered connections. The
// result is safe to iterate while Register and Deregister proceed.
func (r *Registry) Snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.conns)
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
