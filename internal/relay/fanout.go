package relay

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/hpwn/mockchat/internal/chat"
	"github.com/hpwn/mockchat/internal/eventsub"
	"github.com/hpwn/mockchat/internal/metrics"
	"github.com/hpwn/mockchat/internal/session"
	"github.com/hpwn/mockchat/internal/ws"
)

// Fanout delivers one payload to every member of a role's connection set.
// Deliveries are serialized so every connection sees broadcasts in the same
// order they were issued.
type Fanout struct {
	registry *session.Registry
	metrics  *metrics.Metrics
	log      *zap.Logger

	mu sync.Mutex
}

// NewFanout returns a Fanout over registry.
func NewFanout(registry *session.Registry, m *metrics.Metrics, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{registry: registry, metrics: m, log: logger}
}

// Broadcast sends msg to every browser connection open at call time and
// returns how many accepted it.
func (f *Fanout) Broadcast(msg chat.Message, direction string) int {
	payload, err := ws.EncodeChat(msg)
	if err != nil {
		f.log.Error("encode chat frame", zap.Error(err))
		return 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.deliver(session.RoleBrowser, f.registry.Browsers(), payload)
	f.metrics.Relayed(direction, n)
	return n
}

// SendToBots sends env to every bot connection open at call time and
// returns how many accepted it.
func (f *Fanout) SendToBots(env eventsub.Envelope) int {
	payload, err := json.Marshal(env)
	if err != nil {
		f.log.Error("encode notification", zap.Error(err))
		return 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.deliver(session.RoleBot, f.registry.Bots(), payload)
	f.metrics.Relayed(metrics.BrowserToBot, n)
	return n
}

// deliver never stops early: a closed or failing peer is unregistered and
// skipped.
func (f *Fanout) deliver(role session.Role, targets []session.Conn, payload []byte) int {
	delivered := 0
	for _, conn := range targets {
		if !conn.Open() {
			f.metrics.Dropped(metrics.ReasonNotReady)
			f.registry.Unregister(conn)
			continue
		}
		if err := conn.Send(payload); err != nil {
			f.metrics.SendFailed(string(role))
			f.log.Debug("send failed, dropping connection",
				zap.String("role", string(role)),
				zap.String("conn", conn.ID()),
				zap.Error(err))
			f.registry.Unregister(conn)
			continue
		}
		delivered++
	}
	return delivered
}
