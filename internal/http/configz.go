package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/hpwn/mockchat/internal/configreporter"
)

// RegisterConfigz installs a /configz handler that returns the redacted runtime configuration.
// Add ?pretty=1 for indented output.
func RegisterConfigz(mux *http.ServeMux, snapshot func() configreporter.Snapshot) {
	if mux == nil || snapshot == nil {
		return
	}

	mux.HandleFunc("/configz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if r.Method == http.MethodHead {
			return
		}

		enc := json.NewEncoder(w)
		if r.URL.Query().Get("pretty") != "" {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(snapshot()); err != nil {
			http.Error(w, "failed to encode config", http.StatusInternalServerError)
		}
	})
}
