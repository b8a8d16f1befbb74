// Package eventsub models the notification-channel wire format the bot
// consumes and translates relayed chat messages into it.
package eventsub

const (
	MessageTypeWelcome      = "session_welcome"
	MessageTypeNotification = "notification"

	SubscriptionChatMessage = "channel.chat.message"
)

// Metadata is the metadata block shared by every notification-channel frame.
type Metadata struct {
	MessageID        string `json:"message_id,omitempty"`
	MessageType      string `json:"message_type"`
	MessageTimestamp string `json:"message_timestamp,omitempty"`
	SubscriptionType string `json:"subscription_type,omitempty"`
}

// Envelope is a "notification" frame carrying one chat event.
type Envelope struct {
	Metadata Metadata            `json:"metadata"`
	Payload  NotificationPayload `json:"payload"`
}

type NotificationPayload struct {
	Subscription Subscription `json:"subscription"`
	Event        ChatEvent    `json:"event"`
}

type Subscription struct {
	Type string `json:"type"`
}

// ChatEvent is the channel.chat.message event body.
type ChatEvent struct {
	BroadcasterUserID    string       `json:"broadcaster_user_id"`
	BroadcasterUserLogin string       `json:"broadcaster_user_login"`
	ChatterUserID        string       `json:"chatter_user_id"`
	ChatterUserLogin     string       `json:"chatter_user_login"`
	ChatterUserName      string       `json:"chatter_user_name"`
	Message              EventMessage `json:"message"`
}

type EventMessage struct {
	Text string `json:"text"`
}

// Welcome is the "session_welcome" handshake sent once per bot connection.
type Welcome struct {
	Metadata Metadata       `json:"metadata"`
	Payload  WelcomePayload `json:"payload"`
}

type WelcomePayload struct {
	Session WelcomeSession `json:"session"`
}

type WelcomeSession struct {
	ID                      string  `json:"id"`
	Status                  string  `json:"status"`
	ConnectedAt             string  `json:"connected_at"`
	KeepaliveTimeoutSeconds int     `json:"keepalive_timeout_seconds"`
	ReconnectURL            *string `json:"reconnect_url"`
}
