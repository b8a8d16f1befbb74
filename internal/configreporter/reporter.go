package configreporter

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/hpwn/mockchat/internal/config"
)

// Reporter produces redacted runtime configuration snapshots for diagnostics.
type Reporter struct {
	cfg     config.Config
	origins []string
}

// NewReporter constructs a Reporter from the effective runtime configuration.
func NewReporter(cfg config.Config) Reporter {
	origins := append([]string(nil), cfg.HTTP.AllowedOrigins...)
	sort.Strings(origins)
	return Reporter{cfg: cfg, origins: origins}
}

// Snapshot represents the redacted configuration payload returned by /configz.
type Snapshot struct {
	Environment string            `json:"environment"`
	HTTP        HTTPSnapshot      `json:"http"`
	Channel     ChannelSnapshot   `json:"channel"`
	Websocket   WebsocketSnapshot `json:"websocket"`
	Log         LogSnapshot       `json:"log"`
	Dev         DevSnapshot       `json:"dev"`
	TokenFile   string            `json:"token_file,omitempty"`
}

// HTTPSnapshot lists the listeners.
type HTTPSnapshot struct {
	Addr         string `json:"addr"`
	TLSEnabled   bool   `json:"tls_enabled"`
	TLSAddr      string `json:"tls_addr,omitempty"`
	EventSubAddr string `json:"eventsub_addr,omitempty"`
	StaticDir    string `json:"static_dir"`
}

// ChannelSnapshot describes the simulated channel. The access token is only
// reported as set or unset.
type ChannelSnapshot struct {
	BroadcasterID    string `json:"broadcaster_id"`
	BroadcasterLogin string `json:"broadcaster_login"`
	BotLogin         string `json:"bot_login"`
	BotUserID        string `json:"bot_user_id"`
	ClientID         string `json:"client_id"`
	TokenSet         bool   `json:"access_token_set"`
}

// WebsocketSnapshot reports websocket/CORS tuning knobs.
type WebsocketSnapshot struct {
	AllowAny        bool     `json:"allow_any_origin"`
	AllowedOrigins  []string `json:"allowed_origins,omitempty"`
	PingIntervalMS  int      `json:"ping_interval_ms"`
	PongWaitMS      int      `json:"pong_wait_ms"`
	WriteDeadlineMS int      `json:"write_deadline_ms"`
	MaxMessageBytes int64    `json:"max_message_bytes"`
}

type LogSnapshot struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type DevSnapshot struct {
	SeedEnabled bool `json:"seed_enabled"`
}

// Summary is the compact subset logged on startup.
type Summary struct {
	Environment  string `json:"environment"`
	Addr         string `json:"addr"`
	TLSAddr      string `json:"tls_addr,omitempty"`
	EventSubAddr string `json:"eventsub_addr,omitempty"`
	Broadcaster  string `json:"broadcaster"`
	AllowAny     bool   `json:"allow_any_origin"`
	DevSeed      bool   `json:"dev_seed"`
}

// Snapshot returns the current redacted configuration snapshot.
func (r Reporter) Snapshot() Snapshot {
	c := r.cfg
	snap := Snapshot{
		Environment: c.Environment,
		HTTP: HTTPSnapshot{
			Addr:         c.HTTP.Addr,
			TLSEnabled:   c.HTTP.TLSEnabled(),
			EventSubAddr: c.HTTP.EventSubAddr,
			StaticDir:    c.HTTP.StaticDir,
		},
		Channel: ChannelSnapshot{
			BroadcasterID:    c.Channel.BroadcasterID,
			BroadcasterLogin: c.Channel.BroadcasterLogin,
			BotLogin:         c.Channel.BotLogin,
			BotUserID:        c.Channel.BotUserID,
			ClientID:         c.Channel.ClientID,
			TokenSet:         strings.TrimSpace(c.Channel.AccessToken) != "",
		},
		Websocket: WebsocketSnapshot{
			AllowAny:        len(r.origins) == 0,
			AllowedOrigins:  append([]string(nil), r.origins...),
			PingIntervalMS:  durationToMS(c.Websocket.PingInterval),
			PongWaitMS:      durationToMS(c.Websocket.PongWait),
			WriteDeadlineMS: durationToMS(c.Websocket.WriteDeadline),
			MaxMessageBytes: c.Websocket.MaxMessageBytes,
		},
		Log:       LogSnapshot{Level: c.Log.Level, Format: c.Log.Format},
		Dev:       DevSnapshot{SeedEnabled: c.Dev.SeedEnabled && !c.IsProduction()},
		TokenFile: c.TokenFile,
	}
	if snap.HTTP.TLSEnabled {
		snap.HTTP.TLSAddr = c.HTTP.TLSAddr
	}
	return snap
}

// Summary returns the compact subset logged at startup.
func (r Reporter) Summary() Summary {
	snap := r.Snapshot()
	return Summary{
		Environment:  snap.Environment,
		Addr:         snap.HTTP.Addr,
		TLSAddr:      snap.HTTP.TLSAddr,
		EventSubAddr: snap.HTTP.EventSubAddr,
		Broadcaster:  snap.Channel.BroadcasterLogin + "/" + snap.Channel.BroadcasterID,
		AllowAny:     snap.Websocket.AllowAny,
		DevSeed:      snap.Dev.SeedEnabled,
	}
}

// SummaryJSON returns the summary encoded as JSON.
func (r Reporter) SummaryJSON() ([]byte, error) {
	return json.Marshal(r.Summary())
}

func durationToMS(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Millisecond)
}
