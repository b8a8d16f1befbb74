package httpapi

import (
	"encoding/json"
	"net/http"
)

// SessionCounts reports open real-time connections per role.
type SessionCounts struct {
	Browsers int `json:"browsers"`
	Bots     int `json:"bots"`
}

type healthResponse struct {
	Status   string         `json:"status"`
	Sessions *SessionCounts `json:"sessions,omitempty"`
}

// RegisterHealth attaches /healthz. sessions may be nil.
func RegisterHealth(mux *http.ServeMux, sessions func() SessionCounts) {
	if mux == nil {
		return
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "ok"}
		if sessions != nil {
			counts := sessions()
			resp.Sessions = &counts
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// RegisterMetrics mounts the Prometheus handler at /metrics.
func RegisterMetrics(mux *http.ServeMux, handler http.Handler) {
	if mux == nil || handler == nil {
		return
	}
	mux.Handle("/metrics", handler)
}
