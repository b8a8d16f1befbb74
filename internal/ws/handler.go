package ws

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hpwn/mockchat/internal/chat"
	"github.com/hpwn/mockchat/internal/metrics"
	"github.com/hpwn/mockchat/internal/session"
)

// Relay receives connection lifecycle and inbound chat events.
type Relay interface {
	AcceptBrowser(conn session.Conn, endpoint session.Endpoint)
	AcceptBot(conn session.Conn, endpoint session.Endpoint) error
	Release(conn session.Conn)
	HandleBrowserChat(in chat.Inbound)
}

// Handler upgrades browser and EventSub requests.
type Handler struct {
	relay    Relay
	opts     Options
	upgrader websocket.Upgrader
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewHandler returns a Handler. An empty origins list accepts any origin.
func NewHandler(relay Relay, opts Options, origins []string, logger *zap.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		relay: relay,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		log:     logger,
		metrics: m,
	}
}

// Register mounts the socket routes on router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/ws/chat", h.ServeBrowser).Methods(http.MethodGet)
	router.HandleFunc("/ws", h.ServeEventSub).Methods(http.MethodGet)
	router.HandleFunc("/eventsub", h.ServeEventSub).Methods(http.MethodGet)
}

// ServeBrowser upgrades a browser page connection and relays its chat frames.
func (h *Handler) ServeBrowser(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	endpoint := EndpointOf(r)
	conn.OnClose(func() { h.relay.Release(conn) })
	h.relay.AcceptBrowser(conn, endpoint)
	h.log.Debug("browser connected", zap.String("conn", conn.ID()), zap.String("endpoint", string(endpoint)))

	conn.Run(func(raw []byte) {
		in, ok, err := DecodeChat(raw)
		if err != nil {
			h.metrics.Dropped(metrics.ReasonMalformed)
			h.log.Debug("dropping malformed frame", zap.String("conn", conn.ID()), zap.Error(err))
			return
		}
		if !ok {
			return
		}
		h.relay.HandleBrowserChat(in)
	})
}

// ServeEventSub upgrades a bot connection. The welcome handshake is queued
// before the connection can receive notifications; anything the bot sends is
// discarded.
func (h *Handler) ServeEventSub(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	endpoint := EndpointOf(r)
	conn.OnClose(func() { h.relay.Release(conn) })
	if err := h.relay.AcceptBot(conn, endpoint); err != nil {
		h.log.Warn("eventsub handshake failed", zap.String("conn", conn.ID()), zap.Error(err))
		conn.Close()
		return
	}
	h.log.Debug("bot connected", zap.String("conn", conn.ID()), zap.String("endpoint", string(endpoint)))

	conn.Run(nil)
}

func (h *Handler) upgrade(w http.ResponseWriter, r *http.Request) (*Conn, bool) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("upgrade failed", zap.String("path", r.URL.Path), zap.Error(err))
		return nil, false
	}
	return NewConn(wsConn, h.opts, h.log), true
}

// EndpointOf tags r with the listener it arrived on.
func EndpointOf(r *http.Request) session.Endpoint {
	if r.TLS != nil {
		return session.EndpointTLS
	}
	return session.EndpointPlain
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if origin != "" {
			allowed[strings.ToLower(origin)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}
