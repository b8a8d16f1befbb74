// Package sessiontest provides an in-memory session.Conn for tests.
package sessiontest

import (
	"sync"

	"github.com/google/uuid"

	"github.com/hpwn/mockchat/internal/session"
)

// Conn records every payload sent to it.
type Conn struct {
	id string

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

// NewConn returns an open recording connection.
func NewConn() *Conn {
	return &Conn{id: uuid.NewString()}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return session.ErrClosed
	}
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

func (c *Conn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Close makes further sends fail as a dropped peer would.
func (c *Conn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Sent returns a copy of the recorded payloads in send order.
func (c *Conn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

// Failing is an open-looking connection whose sends always fail, like a
// peer that dropped between the ready check and the write.
type Failing struct {
	Conn
	Err error
}

// NewFailing returns a connection that reports open but rejects sends.
func NewFailing(err error) *Failing {
	if err == nil {
		err = session.ErrClosed
	}
	return &Failing{Conn: Conn{id: uuid.NewString()}, Err: err}
}

func (f *Failing) Send([]byte) error { return f.Err }
