// Package ws adapts gorilla websocket connections to the relay's session
// model and serves the browser and EventSub sockets.
package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hpwn/mockchat/internal/session"
)

// Options tunes keep-alive and limits for a connection.
type Options struct {
	PingInterval    time.Duration
	PongWait        time.Duration
	WriteDeadline   time.Duration
	MaxMessageBytes int64
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		PingInterval:    25 * time.Second,
		PongWait:        30 * time.Second,
		WriteDeadline:   5 * time.Second,
		MaxMessageBytes: 128 << 10,
	}
}

// Conn is a session.Conn backed by a websocket. Send appends to an unbounded
// queue drained by one writer goroutine, so frames reach the peer in the
// order they were sent.
type Conn struct {
	id   string
	ws   *websocket.Conn
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	queue  [][]byte
	closed bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	onClose   func()
}

// NewConn wraps an upgraded websocket. Frames sent before Run are queued.
func NewConn(wsConn *websocket.Conn, opts Options, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Conn{
		id:   id,
		ws:   wsConn,
		opts: opts,
		log:  logger.With(zap.String("conn", id)),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues payload without blocking.
func (c *Conn) Send(payload []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return session.ErrClosed
	}
	c.queue = append(c.queue, payload)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

func (c *Conn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// OnClose registers fn to run once when the connection closes. It must be
// set before Run.
func (c *Conn) OnClose(fn func()) {
	c.onClose = fn
}

// Close shuts the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.queue = nil
		c.mu.Unlock()

		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return err
}

// Run starts the writer and blocks reading frames until the peer goes away.
// onMessage receives every text or binary frame; it may be nil.
func (c *Conn) Run(onMessage func([]byte)) {
	go c.writeLoop()
	defer c.Close()

	if c.opts.MaxMessageBytes > 0 {
		c.ws.SetReadLimit(c.opts.MaxMessageBytes)
	}
	c.extendReadDeadline()
	c.ws.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Debug("read error, closing connection", zap.Error(err))
			}
			return
		}
		c.extendReadDeadline()
		if onMessage != nil {
			onMessage(raw)
		}
	}
}

func (c *Conn) extendReadDeadline() {
	if c.opts.PongWait > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	}
}

func (c *Conn) writeLoop() {
	var tick <-chan time.Time
	if c.opts.PingInterval > 0 {
		ticker := time.NewTicker(c.opts.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := c.flush(); err != nil {
			c.log.Debug("write error, closing connection", zap.Error(err))
			c.Close()
			return
		}
		select {
		case <-c.wake:
		case <-tick:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.log.Debug("ping failed, closing connection", zap.Error(err))
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) flush() error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil
		}
		batch := c.queue
		c.queue = nil
		c.mu.Unlock()

		if len(batch) == 0 {
			return nil
		}
		for _, payload := range batch {
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return err
			}
		}
	}
}

func (c *Conn) write(messageType int, payload []byte) error {
	if c.opts.WriteDeadline > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteDeadline))
	}
	return c.ws.WriteMessage(messageType, payload)
}
