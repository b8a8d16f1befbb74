package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpwn/mockchat/internal/chat"
)

func TestEncodeChat(t *testing.T) {
	raw, err := EncodeChat(chat.NewBrowserMessage("Bob", "hi", false, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"chat message","data":{"user":"Bob","text":"hi","isBot":false}}`, string(raw))

	raw, err = EncodeChat(chat.NewBrowserMessage("", "pong", true, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"chat message","data":{"user":"Bot","text":"pong","color":"#9147ff","isBot":true}}`, string(raw))
}

func TestDecodeChat(t *testing.T) {
	in, ok, err := DecodeChat([]byte(`{"event":"chat message","data":{"user":"Bob","text":"hi","color":"#fff"}}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, chat.Inbound{User: "Bob", Text: "hi", Color: "#fff"}, in)

	_, ok, err = DecodeChat([]byte(`{"event":"typing"}`))
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = DecodeChat([]byte(`nope`))
	assert.Error(t, err)

	_, _, err = DecodeChat([]byte(`{"event":"chat message","data":"text"}`))
	assert.Error(t, err)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker(nil)
	assert.True(t, check(requestWithOrigin("http://anything.test")))

	check = originChecker([]string{"https://ok.test"})
	assert.True(t, check(requestWithOrigin("")))
	assert.True(t, check(requestWithOrigin("HTTPS://OK.test")))
	assert.False(t, check(requestWithOrigin("https://other.test")))

	check = originChecker([]string{"https://ok.test", "*"})
	assert.True(t, check(requestWithOrigin("https://other.test")))
}

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws/chat", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}
