package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hpwn/mockchat/internal/chat"
)

type seedResponse struct {
	Relayed int `json:"relayed"`
}

var seedBurstSamples = []chat.Inbound{
	{User: "Dayoman", Text: "Welcome to the stream!", Color: "#9146FF"},
	{User: "hp_az", Text: "Mods are standing by.", Color: "#1F8B4C"},
	{User: "LoFiFan", Text: "!echo is the bot awake?", Color: "#FF0000"},
	{User: "SevenTVEnjoyer", Text: "Check these emotes PogChamp", Color: "#FF7F50"},
	{User: "MusicFan", Text: "That solo was incredible!"},
	{User: "BurstTester", Text: ""},
}

// SetupDevRoutes registers seed endpoints that inject guest chat through the
// browser path. They are never mounted in production.
func (a *API) SetupDevRoutes(r *mux.Router, enabled, production bool) bool {
	if r == nil || !enabled {
		return false
	}
	if production {
		a.log.Warn("refusing to enable seeding routes in production")
		return false
	}

	seed := r.PathPrefix("/api/dev/seed").Subrouter()
	seed.HandleFunc("/marker", a.handleSeedMarker).Methods(http.MethodPost)
	seed.HandleFunc("/burst", a.handleSeedBurst).Methods(http.MethodPost)
	a.log.Info("dev seeding routes enabled")
	return true
}

func (a *API) handleSeedMarker(w http.ResponseWriter, _ *http.Request) {
	a.relay.HandleBrowserChat(chat.Inbound{
		User:  "Marker",
		Text:  fmt.Sprintf("=== Marker %s ===", a.now().Format(time.RFC3339)),
		Color: "#FFCD05",
	})
	writeJSON(w, http.StatusOK, seedResponse{Relayed: 1})
}

func (a *API) handleSeedBurst(w http.ResponseWriter, _ *http.Request) {
	for _, sample := range seedBurstSamples {
		a.relay.HandleBrowserChat(sample)
	}
	a.log.Debug("seed burst relayed", zap.Int("count", len(seedBurstSamples)))
	writeJSON(w, http.StatusOK, seedResponse{Relayed: len(seedBurstSamples)})
}
