package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBrowserMessageNormalizesBot(t *testing.T) {
	msg := NewBrowserMessage("whoever", "pong", true, "#000")

	assert.Equal(t, BotSender, msg.Sender())
	assert.Equal(t, "pong", msg.Text())
	assert.Equal(t, BotColor, msg.Color())
	assert.True(t, msg.IsBot())
}

func TestNewBrowserMessageGuestPassThrough(t *testing.T) {
	msg := NewBrowserMessage("Bob", "hi", false, "#fff")

	assert.Equal(t, "Bob", msg.Sender())
	assert.Equal(t, "hi", msg.Text())
	assert.Equal(t, "#fff", msg.Color())
	assert.False(t, msg.IsBot())
}

func TestGuestWithoutColorStaysUnset(t *testing.T) {
	msg := Inbound{User: "Alice", Text: "yo"}.Message()
	require.Empty(t, msg.Color())

	raw, err := json.Marshal(msg.Payload())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	_, hasColor := fields["color"]
	assert.False(t, hasColor, "color should be omitted, got %s", raw)
	assert.Equal(t, false, fields["isBot"])
}

func TestEmptyTextIsKept(t *testing.T) {
	msg := Inbound{User: "Alice"}.Message()

	raw, err := json.Marshal(msg.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"Alice","text":"","isBot":false}`, string(raw))
}

func TestInboundValid(t *testing.T) {
	cases := []struct {
		name string
		in   Inbound
		want bool
	}{
		{name: "sender", in: Inbound{User: "Bob", Text: "hi"}, want: true},
		{name: "empty text", in: Inbound{User: "Bob"}, want: true},
		{name: "missing sender", in: Inbound{Text: "hi"}, want: false},
		{name: "blank sender", in: Inbound{User: "  \t", Text: "hi"}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Valid())
		})
	}
}
