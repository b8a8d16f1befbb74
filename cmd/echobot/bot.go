package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/hpwn/mockchat/internal/eventsub"
)

// Options configures the reference bot.
type Options struct {
	BaseURL      string
	EventSubURL  string
	ClientID     string
	ClientSecret string
	Prefix       string
}

// Bot answers every chat message starting with Prefix by posting the rest
// of the message back through the REST API.
type Bot struct {
	opts   Options
	client *http.Client
	dialer *websocket.Dialer
	log    *zap.Logger

	userID string
}

// NewBot returns a Bot whose HTTP client fetches and refreshes its token
// with the client-credentials grant.
func NewBot(ctx context.Context, opts Options, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.BaseURL + "/mock/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return &Bot{
		opts:   opts,
		client: cc.Client(ctx),
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    logger,
	}
}

// Run connects and serves until ctx is cancelled or the socket closes.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.validate(ctx); err != nil {
		return err
	}

	conn, _, err := b.dialer.DialContext(ctx, b.opts.EventSubURL, nil)
	if err != nil {
		return fmt.Errorf("echobot: dial eventsub: %w", err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sessionID, err := readWelcome(conn)
	if err != nil {
		return err
	}
	b.log.Info("eventsub session opened", zap.String("session", sessionID))

	if err := b.subscribe(ctx, sessionID); err != nil {
		return err
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("echobot: read: %w", err)
		}
		event, ok := decodeNotification(raw)
		if !ok {
			continue
		}
		reply, ok := b.replyFor(event)
		if !ok {
			continue
		}
		if err := b.send(ctx, event.BroadcasterUserID, reply); err != nil {
			b.log.Warn("send failed", zap.Error(err))
			continue
		}
		b.log.Info("echoed", zap.String("to", event.ChatterUserLogin), zap.String("text", reply))
	}
}

func (b *Bot) replyFor(event eventsub.ChatEvent) (string, bool) {
	text := event.Message.Text
	if b.opts.Prefix == "" || !strings.HasPrefix(text, b.opts.Prefix) {
		return "", false
	}
	return strings.TrimPrefix(text, b.opts.Prefix), true
}

type validateResponse struct {
	Login  string `json:"login"`
	UserID string `json:"user_id"`
}

func (b *Bot) validate(ctx context.Context) error {
	var resp validateResponse
	if err := b.do(ctx, http.MethodGet, "/mock/oauth2/validate", nil, &resp); err != nil {
		return fmt.Errorf("echobot: validate: %w", err)
	}
	b.userID = resp.UserID
	b.log.Info("token validated", zap.String("login", resp.Login), zap.String("user_id", resp.UserID))
	return nil
}

func (b *Bot) subscribe(ctx context.Context, sessionID string) error {
	body := map[string]any{
		"type":    eventsub.SubscriptionChatMessage,
		"version": "1",
		"condition": map[string]string{
			"user_id": b.userID,
		},
		"transport": map[string]string{
			"method":     "websocket",
			"session_id": sessionID,
		},
	}
	if err := b.do(ctx, http.MethodPost, "/mock/helix/eventsub/subscriptions", body, nil); err != nil {
		return fmt.Errorf("echobot: subscribe: %w", err)
	}
	return nil
}

func (b *Bot) send(ctx context.Context, broadcasterID, text string) error {
	body := map[string]string{
		"broadcaster_id": broadcasterID,
		"sender_id":      b.userID,
		"message":        text,
	}
	return b.do(ctx, http.MethodPost, "/mock/helix/chat/messages", body, nil)
}

func (b *Bot) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.opts.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Client-Id", b.opts.ClientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type frame struct {
	Metadata eventsub.Metadata `json:"metadata"`
	Payload  json.RawMessage   `json:"payload"`
}

var errNoWelcome = errors.New("echobot: first frame was not session_welcome")

func readWelcome(conn *websocket.Conn) (string, error) {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("echobot: read welcome: %w", err)
	}
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil || f.Metadata.MessageType != eventsub.MessageTypeWelcome {
		return "", errNoWelcome
	}
	var payload eventsub.WelcomePayload
	if err := json.Unmarshal(f.Payload, &payload); err != nil {
		return "", fmt.Errorf("echobot: decode welcome: %w", err)
	}
	return payload.Session.ID, nil
}

func decodeNotification(raw []byte) (eventsub.ChatEvent, bool) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil || f.Metadata.MessageType != eventsub.MessageTypeNotification {
		return eventsub.ChatEvent{}, false
	}
	var payload eventsub.NotificationPayload
	if err := json.Unmarshal(f.Payload, &payload); err != nil {
		return eventsub.ChatEvent{}, false
	}
	if payload.Subscription.Type != eventsub.SubscriptionChatMessage {
		return eventsub.ChatEvent{}, false
	}
	return payload.Event, true
}
