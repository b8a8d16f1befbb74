package main

import (
	"testing"

	"github.com/gorilla/websocket"
)

func TestDecodePayload(t *testing.T) {
	p, ok := decodePayload(websocket.TextMessage, []byte(`{"event":"chat message","data":{"user":"Bot","text":"pong","color":"#9147ff","isBot":true}}`))
	if !ok {
		t.Fatalf("expected chat frame to decode")
	}
	if got := formatLine(p); got != "[bot] Bot: pong" {
		t.Fatalf("formatLine = %q", got)
	}

	for _, raw := range []string{`{"event":"typing"}`, `not json`, `{"event":"chat message","data":1}`} {
		if _, ok := decodePayload(websocket.TextMessage, []byte(raw)); ok {
			t.Fatalf("expected %q to be skipped", raw)
		}
	}
	if _, ok := decodePayload(websocket.BinaryMessage, []byte(`{}`)); ok {
		t.Fatalf("binary frames should be skipped")
	}
}

func TestDurationFromEnv(t *testing.T) {
	t.Setenv("MOCKCHAT_WS_PONG_WAIT_MS", "1500")
	if got := durationFromEnv("MOCKCHAT_WS_PONG_WAIT_MS", 0); got.Milliseconds() != 1500 {
		t.Fatalf("durationFromEnv = %v", got)
	}
	t.Setenv("MOCKCHAT_WS_PONG_WAIT_MS", "2s")
	if got := durationFromEnv("MOCKCHAT_WS_PONG_WAIT_MS", 0); got.Seconds() != 2 {
		t.Fatalf("durationFromEnv = %v", got)
	}
}
