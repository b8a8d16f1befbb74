// Command wsprobe connects to the browser chat socket, prints every chat
// message it sees and can inject one message as a guest.
package main

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hpwn/mockchat/internal/chat"
	"github.com/hpwn/mockchat/internal/logging"
	"github.com/hpwn/mockchat/internal/ws"
)

type clientConfig struct {
	pongWait  time.Duration
	writeWait time.Duration
	maxBytes  int64
}

func main() {
	wsURLFlag := flag.String("ws-url", "", "browser chat socket to connect to")
	sendFlag := flag.String("send", "", "inject this text once connected")
	userFlag := flag.String("user", "wsprobe", "sender name for -send")
	colorFlag := flag.String("color", "", "sender colour for -send (optional)")
	botsOnlyFlag := flag.Bool("bots-only", false, "only print messages sent by the bot")
	limitFlag := flag.Int("limit", 0, "stop after N messages (0 = unlimited)")
	timeoutFlag := flag.Duration("timeout", 90*time.Second, "maximum inactivity before exit")
	insecureFlag := flag.Bool("insecure", false, "skip TLS verification for self-signed wss:// endpoints")
	flag.Parse()

	logger, err := logging.New(getEnvOrDefault("MOCKCHAT_LOG_LEVEL", "info"), logging.FormatConsole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsprobe: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("wsprobe")
	defer func() { _ = logger.Sync() }()

	wsURL := strings.TrimSpace(*wsURLFlag)
	if wsURL == "" {
		wsURL = strings.TrimSpace(os.Getenv("MOCKCHAT_WS_URL"))
	}
	if wsURL == "" {
		wsURL = fmt.Sprintf("ws://localhost:%s/ws/chat", getEnvOrDefault("PORT", "3000"))
	}

	logger.Info("dialing", zap.String("url", wsURL))

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 15 * time.Second,
	}
	if *insecureFlag {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // local self-signed certs
	}

	conn, resp, err := dialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil {
			logger.Fatal("dial error", zap.Error(err), zap.String("status", resp.Status))
		}
		logger.Fatal("dial error", zap.Error(err))
	}
	defer conn.Close()

	cfg := loadClientConfig()
	applyClientTuning(conn, cfg)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-interrupt
		logger.Info("interrupt received, closing connection")
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
		os.Exit(0)
	}()

	if text := *sendFlag; text != "" {
		if err := sendChat(conn, cfg, chat.Inbound{User: *userFlag, Text: text, Color: *colorFlag}); err != nil {
			logger.Fatal("send failed", zap.Error(err))
		}
		logger.Info("sent", zap.String("user", *userFlag), zap.String("text", text))
	}

	inactivity := *timeoutFlag
	if inactivity <= 0 {
		inactivity = 90 * time.Second
	}

	messagesSeen := 0
	for {
		wait, err := setReadDeadline(conn, cfg, inactivity)
		if err != nil {
			logger.Fatal("failed to set read deadline", zap.Error(err))
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logger.Info("inactivity threshold reached", zap.Duration("after", wait))
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Fatal("read error", zap.Error(err))
			}
			logger.Info("connection closed", zap.Error(err))
			return
		}

		payload, ok := decodePayload(msgType, data)
		if !ok {
			logger.Debug("skipping frame", zap.ByteString("frame", data))
			continue
		}
		if *botsOnlyFlag && !payload.IsBot {
			continue
		}

		fmt.Println(formatLine(payload))
		messagesSeen++
		if *limitFlag > 0 && messagesSeen >= *limitFlag {
			return
		}
	}
}

func sendChat(conn *websocket.Conn, cfg clientConfig, in chat.Inbound) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode chat: %w", err)
	}
	if cfg.writeWait > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(cfg.writeWait))
	}
	return conn.WriteJSON(ws.Frame{Event: ws.EventChatMessage, Data: data})
}

func decodePayload(msgType int, data []byte) (chat.Payload, bool) {
	if msgType != websocket.TextMessage {
		return chat.Payload{}, false
	}
	var f ws.Frame
	if err := json.Unmarshal(data, &f); err != nil || f.Event != ws.EventChatMessage {
		return chat.Payload{}, false
	}
	var payload chat.Payload
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return chat.Payload{}, false
	}
	return payload, true
}

func formatLine(p chat.Payload) string {
	source := "guest"
	if p.IsBot {
		source = "bot"
	}
	return fmt.Sprintf("[%s] %s: %s", source, p.User, p.Text)
}

func getEnvOrDefault(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func loadClientConfig() clientConfig {
	return clientConfig{
		pongWait:  durationFromEnv("MOCKCHAT_WS_PONG_WAIT_MS", 30*time.Second),
		writeWait: durationFromEnv("MOCKCHAT_WS_WRITE_DEADLINE_MS", 5*time.Second),
		maxBytes:  int64FromEnv("MOCKCHAT_WS_MAX_MESSAGE_BYTES", 131072),
	}
}

func applyClientTuning(conn *websocket.Conn, cfg clientConfig) {
	if cfg.maxBytes > 0 {
		conn.SetReadLimit(cfg.maxBytes)
	}
	conn.SetPingHandler(func(appData string) error {
		wait := cfg.writeWait
		if wait <= 0 {
			wait = 5 * time.Second
		}
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(wait))
	})
}

// setReadDeadline waits at most the inactivity limit. Server pings do not
// count as activity.
func setReadDeadline(conn *websocket.Conn, cfg clientConfig, inactivity time.Duration) (time.Duration, error) {
	wait := inactivity
	if wait <= 0 {
		wait = cfg.pongWait
	}
	if wait <= 0 {
		return wait, conn.SetReadDeadline(time.Time{})
	}
	return wait, conn.SetReadDeadline(time.Now().Add(wait))
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if value, err := time.ParseDuration(raw); err == nil {
		return value
	}
	return fallback
}

func int64FromEnv(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
