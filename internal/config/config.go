// Package config loads the mock server configuration from an optional YAML
// file and MOCKCHAT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Channel     ChannelConfig   `yaml:"channel"`
	Websocket   WebsocketConfig `yaml:"websocket"`
	Log         LogConfig       `yaml:"log"`
	Dev         DevConfig       `yaml:"dev"`
	TokenFile   string          `yaml:"token_file"`

	// Warnings collects ignored environment values for the caller to log.
	Warnings []string `yaml:"-"`
}

// HTTPConfig holds listener settings. Both HTTP listeners serve the same
// routes and share one session space.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	TLSAddr        string   `yaml:"tls_addr"`
	CertFile       string   `yaml:"cert_file"`
	KeyFile        string   `yaml:"key_file"`
	EventSubAddr   string   `yaml:"eventsub_addr"` // dedicated bot socket listener; empty disables
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// TLSEnabled reports whether the encrypted listener should start.
func (h HTTPConfig) TLSEnabled() bool {
	return h.TLSAddr != "" && h.CertFile != "" && h.KeyFile != ""
}

// ChannelConfig describes the single simulated channel and bot account.
type ChannelConfig struct {
	BroadcasterID    string `yaml:"broadcaster_id"`
	BroadcasterLogin string `yaml:"broadcaster_login"`
	BotLogin         string `yaml:"bot_login"`
	BotUserID        string `yaml:"bot_user_id"`
	ClientID         string `yaml:"client_id"`
	AccessToken      string `yaml:"access_token"`
}

// WebsocketConfig holds real-time connection tuning.
type WebsocketConfig struct {
	PingInterval    time.Duration `yaml:"ping_interval"`
	PongWait        time.Duration `yaml:"pong_wait"`
	WriteDeadline   time.Duration `yaml:"write_deadline"`
	MaxMessageBytes int64         `yaml:"max_message_bytes"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DevConfig holds developer helpers.
type DevConfig struct {
	SeedEnabled bool `yaml:"seed_enabled"`
}

// DefaultPath is used when MOCKCHAT_CONFIG is unset.
const DefaultPath = "mockchat.yaml"

// Default returns a Config with the stock settings.
func Default() Config {
	return Config{
		Environment: "development",
		HTTP: HTTPConfig{
			Addr:         "0.0.0.0:3000",
			TLSAddr:      "0.0.0.0:3443",
			EventSubAddr: "0.0.0.0:8080",
			StaticDir:    "public",
		},
		Channel: ChannelConfig{
			BroadcasterID:    "12345",
			BroadcasterLogin: "MyStream",
			BotLogin:         "bot_user",
			BotUserID:        "999",
			ClientID:         "mock_client_id",
			AccessToken:      "mock_access_token",
		},
		Websocket: WebsocketConfig{
			PingInterval:    25 * time.Second,
			PongWait:        30 * time.Second,
			WriteDeadline:   5 * time.Second,
			MaxMessageBytes: 131072,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// PathFromEnv returns the config file location.
func PathFromEnv() string {
	return getEnvOrDefault("MOCKCHAT_CONFIG", DefaultPath)
}

// Load reads path (a missing file is not an error), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		errs = append(errs, errors.New("http.cert_file and http.key_file must be set together"))
	}
	if c.Channel.BroadcasterID == "" {
		errs = append(errs, errors.New("channel.broadcaster_id is required"))
	}
	if c.Websocket.PingInterval <= 0 || c.Websocket.PongWait <= 0 || c.Websocket.WriteDeadline <= 0 {
		errs = append(errs, errors.New("websocket durations must be positive"))
	}
	if c.Websocket.PingInterval >= c.Websocket.PongWait {
		errs = append(errs, errors.New("websocket.ping_interval must be shorter than websocket.pong_wait"))
	}
	if c.Websocket.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("websocket.max_message_bytes must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not console or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether dev-only features must stay off.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
