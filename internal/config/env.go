package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overlays MOCKCHAT_* variables on cfg. Invalid values are ignored
// and reported through cfg.Warnings.
func applyEnv(cfg *Config) {
	cfg.Environment = getEnvOrDefault("MOCKCHAT_ENV", cfg.Environment)

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.HTTP.Addr = replacePort(cfg.HTTP.Addr, port)
	}
	cfg.HTTP.Addr = getEnvOrDefault("MOCKCHAT_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.TLSAddr = getEnvOrDefault("MOCKCHAT_TLS_ADDR", cfg.HTTP.TLSAddr)
	cfg.HTTP.CertFile = getEnvOrDefault("MOCKCHAT_TLS_CERT", cfg.HTTP.CertFile)
	cfg.HTTP.KeyFile = getEnvOrDefault("MOCKCHAT_TLS_KEY", cfg.HTTP.KeyFile)
	if addr := strings.TrimSpace(os.Getenv("MOCKCHAT_EVENTSUB_ADDR")); addr != "" {
		if strings.EqualFold(addr, "off") {
			addr = ""
		}
		cfg.HTTP.EventSubAddr = addr
	}
	cfg.HTTP.StaticDir = getEnvOrDefault("MOCKCHAT_STATIC_DIR", cfg.HTTP.StaticDir)
	if origins := parseCSV(os.Getenv("MOCKCHAT_ALLOWED_ORIGINS")); len(origins) > 0 {
		cfg.HTTP.AllowedOrigins = origins
	}

	cfg.Channel.BroadcasterID = getEnvOrDefault("MOCKCHAT_BROADCASTER_ID", cfg.Channel.BroadcasterID)
	cfg.Channel.BroadcasterLogin = getEnvOrDefault("MOCKCHAT_BROADCASTER_LOGIN", cfg.Channel.BroadcasterLogin)
	cfg.Channel.BotLogin = getEnvOrDefault("MOCKCHAT_BOT_LOGIN", cfg.Channel.BotLogin)
	cfg.Channel.BotUserID = getEnvOrDefault("MOCKCHAT_BOT_USER_ID", cfg.Channel.BotUserID)
	cfg.Channel.ClientID = getEnvOrDefault("MOCKCHAT_CLIENT_ID", cfg.Channel.ClientID)
	cfg.Channel.AccessToken = getEnvOrDefault("MOCKCHAT_ACCESS_TOKEN", cfg.Channel.AccessToken)

	cfg.Websocket.PingInterval = cfg.getEnvAsDurationMS("MOCKCHAT_WS_PING_INTERVAL_MS", cfg.Websocket.PingInterval)
	cfg.Websocket.PongWait = cfg.getEnvAsDurationMS("MOCKCHAT_WS_PONG_WAIT_MS", cfg.Websocket.PongWait)
	cfg.Websocket.WriteDeadline = cfg.getEnvAsDurationMS("MOCKCHAT_WS_WRITE_DEADLINE_MS", cfg.Websocket.WriteDeadline)
	cfg.Websocket.MaxMessageBytes = int64(cfg.getEnvAsInt("MOCKCHAT_WS_MAX_MESSAGE_BYTES", int(cfg.Websocket.MaxMessageBytes)))

	cfg.Log.Level = getEnvOrDefault("MOCKCHAT_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvOrDefault("MOCKCHAT_LOG_FORMAT", cfg.Log.Format)

	cfg.Dev.SeedEnabled = cfg.getEnvAsBool("MOCKCHAT_DEV_SEED_ENABLED", cfg.Dev.SeedEnabled)
	cfg.TokenFile = getEnvOrDefault("MOCKCHAT_TOKEN_FILE", cfg.TokenFile)
}

func getEnvOrDefault(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func (c *Config) getEnvAsBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		c.warnf("invalid %s=%q, using default %t", key, value, def)
		return def
	}
	return parsed
}

func (c *Config) getEnvAsInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		c.warnf("invalid %s=%q, using default %d", key, value, def)
		return def
	}
	return parsed
}

// getEnvAsDurationMS accepts plain milliseconds or a Go duration string.
func (c *Config) getEnvAsDurationMS(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	c.warnf("invalid %s=%q, using default %s", key, value, def)
	return def
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func parseCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func replacePort(addr, port string) string {
	host := addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
	}
	return host + ":" + port
}
