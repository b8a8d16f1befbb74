// Package relay bridges the browser channel, the bot's REST calls and the
// EventSub socket.
package relay

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpwn/mockchat/internal/chat"
	"github.com/hpwn/mockchat/internal/eventsub"
	"github.com/hpwn/mockchat/internal/metrics"
	"github.com/hpwn/mockchat/internal/session"
)

// Ack is the synthetic delivery acknowledgment returned to a bot send.
type Ack struct {
	MessageID string `json:"message_id"`
	IsSent    bool   `json:"is_sent"`
}

// Coordinator owns session membership and routes inbound events to the
// fan-out.
type Coordinator struct {
	registry   *session.Registry
	translator *eventsub.Translator
	fanout     *Fanout
	metrics    *metrics.Metrics
	log        *zap.Logger
	newID      func() string
}

// New returns a Coordinator. m and logger may be nil.
func New(registry *session.Registry, translator *eventsub.Translator, m *metrics.Metrics, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		registry:   registry,
		translator: translator,
		fanout:     NewFanout(registry, m, logger),
		metrics:    m,
		log:        logger,
		newID:      uuid.NewString,
	}
}

// Registry exposes the session set for read-only reporting.
func (c *Coordinator) Registry() *session.Registry {
	return c.registry
}

// HandleBrowserChat relays a browser chat event to every browser and bot.
// Events without a sender are dropped silently.
func (c *Coordinator) HandleBrowserChat(in chat.Inbound) {
	cmds := PlanBrowserChat(c.translator, in)
	if len(cmds) == 0 {
		c.metrics.Dropped(metrics.ReasonInvalidEvent)
		c.log.Debug("dropping chat event without sender")
		return
	}
	c.Dispatch(cmds)
}

// HandleBotSend broadcasts text as the bot. The acknowledgment does not
// depend on any browser receiving it.
func (c *Coordinator) HandleBotSend(text string) Ack {
	c.Dispatch(PlanBotSend(text))
	return Ack{MessageID: c.newID(), IsSent: true}
}

// Dispatch executes cmds in order. Every command runs even if an earlier
// one reached no peers.
func (c *Coordinator) Dispatch(cmds []Command) {
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case BroadcastCmd:
			c.fanout.Broadcast(cmd.Message, cmd.Direction)
		case BotNotifyCmd:
			c.fanout.SendToBots(cmd.Envelope)
		default:
			c.log.Warn("unknown relay command", zap.String("type", fmt.Sprintf("%T", cmd)))
		}
	}
}

// AcceptBrowser makes conn eligible for broadcasts.
func (c *Coordinator) AcceptBrowser(conn session.Conn, endpoint session.Endpoint) {
	c.registry.Register(endpoint, conn, session.RoleBrowser)
}

// AcceptBot queues the welcome handshake on conn and only then registers
// it, so the welcome is always the first frame the bot reads.
func (c *Coordinator) AcceptBot(conn session.Conn, endpoint session.Endpoint) error {
	welcome, err := json.Marshal(c.translator.Welcome())
	if err != nil {
		return fmt.Errorf("relay: encode welcome: %w", err)
	}
	if err := conn.Send(welcome); err != nil {
		return fmt.Errorf("relay: send welcome: %w", err)
	}
	c.registry.Register(endpoint, conn, session.RoleBot)
	return nil
}

// Release removes conn after its transport closed.
func (c *Coordinator) Release(conn session.Conn) {
	c.registry.Unregister(conn)
}

// Shutdown closes every registered connection that can be closed.
func (c *Coordinator) Shutdown() {
	for _, e := range c.registry.Entries() {
		if closer, ok := e.Conn.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				c.log.Debug("close connection", zap.String("conn", e.Conn.ID()), zap.Error(err))
			}
		}
		c.registry.Unregister(e.Conn)
	}
}
