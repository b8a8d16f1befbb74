package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hpwn/mockchat/internal/eventsub"
	"github.com/hpwn/mockchat/internal/relay"
)

const (
	tokenTTLSeconds  = 3600
	defaultUserLogin = "test_user"
	maxBodyBytes     = 64 << 10
)

// SetupMockRoutes registers the platform REST surface under /mock and the
// short aliases used by older bot builds.
func (a *API) SetupMockRoutes(r *mux.Router) {
	if r == nil {
		return
	}

	m := r.PathPrefix("/mock").Subrouter()
	m.HandleFunc("/oauth2/validate", a.handleValidate).Methods(http.MethodGet)
	m.HandleFunc("/oauth2/token", a.handleToken).Methods(http.MethodPost)
	m.HandleFunc("/helix/eventsub/subscriptions", a.handleSubscribe).Methods(http.MethodPost)
	m.HandleFunc("/helix/chat/messages", a.handleSendChat).Methods(http.MethodPost)
	m.HandleFunc("/helix/streams", a.handleStreams).Methods(http.MethodGet)
	m.HandleFunc("/helix/users", a.handleUsers).Methods(http.MethodGet)

	r.HandleFunc("/eventsub-subscribe", a.handleSubscribe).Methods(http.MethodPost)
	r.HandleFunc("/send-chat-message", a.handleSendChat).Methods(http.MethodPost)
}

type validateResponse struct {
	ClientID  string   `json:"client_id"`
	Login     string   `json:"login"`
	UserID    string   `json:"user_id"`
	Scopes    []string `json:"scopes"`
	ExpiresIn int      `json:"expires_in"`
}

func (a *API) handleValidate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, validateResponse{
		ClientID:  a.channel.ClientID,
		Login:     a.channel.BotLogin,
		UserID:    a.channel.BotUserID,
		Scopes:    []string{},
		ExpiresIn: tokenTTLSeconds,
	})
}

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Scope       []string `json:"scope"`
}

// handleToken issues the configured mock token for any client-credentials
// request.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	if grant := r.PostForm.Get("grant_type"); grant != "" && grant != "client_credentials" {
		writeError(w, http.StatusBadRequest, "unsupported grant_type")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: a.channel.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   tokenTTLSeconds,
		Scope:       []string{},
	})
}

type subscribeRequest struct {
	Type      string          `json:"type"`
	Version   string          `json:"version"`
	Condition json.RawMessage `json:"condition"`
	Transport json.RawMessage `json:"transport"`
}

type subscription struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Type      string          `json:"type"`
	Version   string          `json:"version"`
	Condition json.RawMessage `json:"condition"`
	CreatedAt string          `json:"created_at"`
	Transport json.RawMessage `json:"transport,omitempty"`
	Cost      int             `json:"cost"`
}

type subscribeResponse struct {
	Data         []subscription `json:"data"`
	Total        int            `json:"total"`
	TotalCost    int            `json:"total_cost"`
	MaxTotalCost int            `json:"max_total_cost"`
}

// handleSubscribe accepts every subscription and echoes the condition back.
func (a *API) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Type == "" {
		req.Type = eventsub.SubscriptionChatMessage
	}
	if req.Version == "" {
		req.Version = "1"
	}
	if len(req.Condition) == 0 {
		req.Condition = json.RawMessage(`{}`)
	}

	sub := subscription{
		ID:        a.newID(),
		Status:    "enabled",
		Type:      req.Type,
		Version:   req.Version,
		Condition: req.Condition,
		CreatedAt: a.now().UTC().Format(time.RFC3339Nano),
		Transport: req.Transport,
	}
	a.log.Debug("subscription accepted", zap.String("id", sub.ID), zap.String("type", sub.Type))
	writeJSON(w, http.StatusAccepted, subscribeResponse{
		Data:         []subscription{sub},
		Total:        1,
		MaxTotalCost: 10000,
	})
}

type sendChatRequest struct {
	BroadcasterID string `json:"broadcaster_id"`
	SenderID      string `json:"sender_id"`
	Message       string `json:"message"`
}

type sendChatResponse struct {
	Data []relay.Ack `json:"data"`
}

// handleSendChat relays the bot's message to every browser. The ack is
// synthetic and unconditional.
func (a *API) handleSendChat(w http.ResponseWriter, r *http.Request) {
	var req sendChatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ack := a.relay.HandleBotSend(req.Message)
	writeJSON(w, http.StatusOK, sendChatResponse{Data: []relay.Ack{ack}})
}

func (a *API) handleStreams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
}

type user struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimSpace(r.URL.Query().Get("login"))
	if login == "" {
		login = defaultUserLogin
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": []user{{
			ID:          a.channel.BroadcasterID,
			Login:       login,
			DisplayName: login,
		}},
	})
}

var errBadJSON = errors.New("request body must be a JSON object")

// decodeBody accepts an empty body as an empty object.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errBadJSON
	}
	return nil
}
