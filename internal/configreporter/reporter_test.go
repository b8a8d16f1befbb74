package configreporter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hpwn/mockchat/internal/config"
)

func TestSnapshotRedactsAccessToken(t *testing.T) {
	cfg := config.Default()
	cfg.Channel.AccessToken = "supersecret-token"
	cfg.HTTP.AllowedOrigins = []string{"http://b.test", "http://a.test"}

	snapshot := NewReporter(cfg).Snapshot()
	if !snapshot.Channel.TokenSet {
		t.Fatalf("expected access_token_set to be true")
	}
	if snapshot.Websocket.AllowAny {
		t.Fatalf("expected origin allow list to be reported")
	}
	if got := snapshot.Websocket.AllowedOrigins; len(got) != 2 || got[0] != "http://a.test" {
		t.Fatalf("expected sorted origins, got %v", got)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if strings.Contains(string(data), "supersecret") {
		t.Fatalf("snapshot leaked secret data: %s", data)
	}
}

func TestSnapshotHidesDisabledTLS(t *testing.T) {
	cfg := config.Default()

	snapshot := NewReporter(cfg).Snapshot()
	if snapshot.HTTP.TLSEnabled || snapshot.HTTP.TLSAddr != "" {
		t.Fatalf("expected TLS to be reported disabled, got %+v", snapshot.HTTP)
	}

	cfg.HTTP.CertFile, cfg.HTTP.KeyFile = "dev.crt", "dev.key"
	snapshot = NewReporter(cfg).Snapshot()
	if snapshot.HTTP.TLSAddr != cfg.HTTP.TLSAddr {
		t.Fatalf("expected tls addr %q, got %q", cfg.HTTP.TLSAddr, snapshot.HTTP.TLSAddr)
	}
}

func TestDevSeedNeverReportedInProduction(t *testing.T) {
	cfg := config.Default()
	cfg.Dev.SeedEnabled = true
	cfg.Environment = "production"

	if NewReporter(cfg).Snapshot().Dev.SeedEnabled {
		t.Fatalf("dev seeding must not report enabled in production")
	}
}

func TestSummaryJSON(t *testing.T) {
	data, err := NewReporter(config.Default()).SummaryJSON()
	if err != nil {
		t.Fatalf("summary json: %v", err)
	}
	if !strings.Contains(string(data), `"broadcaster":"MyStream/12345"`) {
		t.Fatalf("unexpected summary: %s", data)
	}
}
