package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.SessionDelta("browser", "tls", 1)
	m.SessionDelta("browser", "tls", 1)
	m.SessionDelta("browser", "tls", -1)
	m.Relayed(BotToBrowser, 3)
	m.Relayed(BotToBrowser, 0)
	m.Dropped(ReasonInvalidEvent)
	m.SendFailed("bot")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("browser", "tls")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.relayed.WithLabelValues(BotToBrowser)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues(ReasonInvalidEvent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sendFailures.WithLabelValues("bot")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionDelta("bot", "plain", 1)
	m.Relayed(BrowserToBot, 1)
	m.Dropped(ReasonMalformed)
	m.SendFailed("browser")
	assert.Nil(t, m.Registry())

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerExposesRelayCounters(t *testing.T) {
	m := New()
	m.Relayed(BrowserToBrowser, 2)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `mockchat_relayed_messages_total{direction="browser_to_browser"} 2`)
}
