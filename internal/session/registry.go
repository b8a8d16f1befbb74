// Package session tracks the live connections of the simulated platform.
package session

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Conn.Send once the connection has closed.
var ErrClosed = errors.New("session: connection closed")

// Role distinguishes browser pages from bots.
type Role string

const (
	RoleBrowser Role = "browser"
	RoleBot     Role = "bot"
)

// Endpoint identifies which listener a connection arrived on.
type Endpoint string

const (
	EndpointPlain Endpoint = "plain"
	EndpointTLS   Endpoint = "tls"
)

// Conn is a registered peer. Send must not block: it queues payload for the
// peer's single ordered writer.
type Conn interface {
	ID() string
	Send(payload []byte) error
	Open() bool
}

// Entry is a registered connection with its tags.
type Entry struct {
	Conn     Conn
	Role     Role
	Endpoint Endpoint
}

// ChangeFunc observes registry membership changes; delta is +1 or -1.
type ChangeFunc func(e Entry, delta int)

// Registry is the merged connection set for every listener.
type Registry struct {
	mu       sync.RWMutex
	entries  map[Conn]Entry
	onChange ChangeFunc
}

// NewRegistry returns an empty registry. onChange may be nil.
func NewRegistry(onChange ChangeFunc) *Registry {
	return &Registry{
		entries:  make(map[Conn]Entry),
		onChange: onChange,
	}
}

// Register adds conn under role and endpoint. Registering a connection twice
// re-tags it without counting it twice.
func (r *Registry) Register(endpoint Endpoint, conn Conn, role Role) {
	if conn == nil {
		return
	}
	e := Entry{Conn: conn, Role: role, Endpoint: endpoint}

	r.mu.Lock()
	prev, existed := r.entries[conn]
	r.entries[conn] = e
	r.mu.Unlock()

	if r.onChange == nil {
		return
	}
	if existed {
		r.onChange(prev, -1)
	}
	r.onChange(e, 1)
}

// Unregister removes conn. It reports whether conn was present; removing an
// unknown connection is a no-op.
func (r *Registry) Unregister(conn Conn) bool {
	if conn == nil {
		return false
	}

	r.mu.Lock()
	e, ok := r.entries[conn]
	if ok {
		delete(r.entries, conn)
	}
	r.mu.Unlock()

	if ok && r.onChange != nil {
		r.onChange(e, -1)
	}
	return ok
}

// Browsers returns the browser connections open at call time.
func (r *Registry) Browsers() []Conn {
	return r.conns(RoleBrowser)
}

// Bots returns the bot connections open at call time.
func (r *Registry) Bots() []Conn {
	return r.conns(RoleBot)
}

// Count returns how many connections of role are registered on endpoint.
func (r *Registry) Count(role Role, endpoint Endpoint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if e.Role == role && e.Endpoint == endpoint {
			n++
		}
	}
	return n
}

// Entries returns a snapshot of every registered connection.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

func (r *Registry) conns(role Role) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.entries))
	for conn, e := range r.entries {
		if e.Role == role {
			out = append(out, conn)
		}
	}
	return out
}
