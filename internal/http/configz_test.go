package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hpwn/mockchat/internal/configreporter"
)

func TestRegisterConfigz(t *testing.T) {
	mux := http.NewServeMux()
	called := false
	snapshot := func() configreporter.Snapshot {
		called = true
		return configreporter.Snapshot{
			Environment: "development",
		}
	}
	RegisterConfigz(mux, snapshot)

	req := httptest.NewRequest(http.MethodGet, "/configz", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rr.Code)
	}
	if !called {
		t.Fatalf("expected snapshot to be invoked")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content-type: %s", ct)
	}

	// Ensure method not allowed for POST.
	called = false
	req = httptest.NewRequest(http.MethodPost, "/configz", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if called {
		t.Fatalf("snapshot should not have been called for POST")
	}
}

func TestRegisterConfigzPrettyAndHead(t *testing.T) {
	mux := http.NewServeMux()
	RegisterConfigz(mux, func() configreporter.Snapshot {
		return configreporter.Snapshot{Environment: "development"}
	})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/configz?pretty=1", nil))
	if !strings.Contains(rr.Body.String(), "\n  \"environment\": \"development\"") {
		t.Fatalf("expected indented output, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, "/configz", nil))
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Fatalf("expected empty 200 for HEAD, got %d %q", rr.Code, rr.Body.String())
	}
}
