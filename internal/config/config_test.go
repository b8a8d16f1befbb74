package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mockchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.HTTP, cfg.HTTP)
	assert.Equal(t, "12345", cfg.Channel.BroadcasterID)
	assert.Equal(t, "MyStream", cfg.Channel.BroadcasterLogin)
	assert.Equal(t, 25*time.Second, cfg.Websocket.PingInterval)
	assert.False(t, cfg.HTTP.TLSEnabled())
	assert.Empty(t, cfg.Warnings)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
environment: staging
http:
  addr: 127.0.0.1:4000
  tls_addr: 127.0.0.1:4443
  cert_file: /certs/dev.crt
  key_file: /certs/dev.key
  eventsub_addr: ""
  allowed_origins: [http://localhost:4000]
channel:
  broadcaster_id: "42"
  broadcaster_login: Studio
websocket:
  ping_interval: 5s
  pong_wait: 10s
log:
  format: json
dev:
  seed_enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "127.0.0.1:4000", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.TLSEnabled())
	assert.Empty(t, cfg.HTTP.EventSubAddr)
	assert.Equal(t, []string{"http://localhost:4000"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "42", cfg.Channel.BroadcasterID)
	assert.Equal(t, "Studio", cfg.Channel.BroadcasterLogin)
	assert.Equal(t, "bot_user", cfg.Channel.BotLogin)
	assert.Equal(t, 5*time.Second, cfg.Websocket.PingInterval)
	assert.Equal(t, 10*time.Second, cfg.Websocket.PongWait)
	assert.Equal(t, 5*time.Second, cfg.Websocket.WriteDeadline)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Dev.SeedEnabled)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "http:\n  adr: typo\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MOCKCHAT_EVENTSUB_ADDR", "off")
	t.Setenv("MOCKCHAT_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("MOCKCHAT_BROADCASTER_ID", "555")
	t.Setenv("MOCKCHAT_WS_PONG_WAIT_MS", "45000")
	t.Setenv("MOCKCHAT_WS_PING_INTERVAL_MS", "20s")
	t.Setenv("MOCKCHAT_DEV_SEED_ENABLED", "true")
	t.Setenv("MOCKCHAT_TOKEN_FILE", "/tmp/tok")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr)
	assert.Empty(t, cfg.HTTP.EventSubAddr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "555", cfg.Channel.BroadcasterID)
	assert.Equal(t, 45*time.Second, cfg.Websocket.PongWait)
	assert.Equal(t, 20*time.Second, cfg.Websocket.PingInterval)
	assert.True(t, cfg.Dev.SeedEnabled)
	assert.Equal(t, "/tmp/tok", cfg.TokenFile)
}

func TestInvalidEnvIsWarnedAndIgnored(t *testing.T) {
	t.Setenv("MOCKCHAT_DEV_SEED_ENABLED", "sometimes")
	t.Setenv("MOCKCHAT_WS_MAX_MESSAGE_BYTES", "lots")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Dev.SeedEnabled)
	assert.Equal(t, int64(131072), cfg.Websocket.MaxMessageBytes)
	assert.Len(t, cfg.Warnings, 2)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty addr", mutate: func(c *Config) { c.HTTP.Addr = " " }},
		{name: "cert without key", mutate: func(c *Config) { c.HTTP.CertFile = "x.crt" }},
		{name: "no broadcaster", mutate: func(c *Config) { c.Channel.BroadcasterID = "" }},
		{name: "ping after pong", mutate: func(c *Config) { c.Websocket.PingInterval = time.Minute }},
		{name: "zero read limit", mutate: func(c *Config) { c.Websocket.MaxMessageBytes = 0 }},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestIsProduction(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.IsProduction())
	cfg.Environment = " Prod "
	assert.True(t, cfg.IsProduction())
}
