// Package routes serves the mock platform REST API and dev helpers.
package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpwn/mockchat/internal/chat"
	"github.com/hpwn/mockchat/internal/config"
	"github.com/hpwn/mockchat/internal/relay"
)

// Relay is the part of the coordinator the REST surface drives.
type Relay interface {
	HandleBotSend(text string) relay.Ack
	HandleBrowserChat(in chat.Inbound)
}

// API holds the handlers' dependencies.
type API struct {
	relay   Relay
	channel config.ChannelConfig
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

// New returns the REST handlers for one simulated channel.
func New(r Relay, channel config.ChannelConfig, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		relay:   r,
		channel: channel,
		log:     logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError mimics the platform's error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"status":  status,
		"message": message,
	})
}
