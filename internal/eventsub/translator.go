package eventsub

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hpwn/mockchat/internal/chat"
)

const (
	DefaultBroadcasterID    = "12345"
	DefaultBroadcasterLogin = "MyStream"

	guestIDSpace = 1000
)

// Broadcaster identifies the single simulated channel.
type Broadcaster struct {
	UserID string
	Login  string
}

// Translator builds notification-channel frames. It holds no mutable state,
// so one Translator may be shared by every connection handler.
type Translator struct {
	broadcaster Broadcaster
	keepalive   time.Duration
	now         func() time.Time
	newID       func() string
	guestN      func(n int) int
}

// Option customizes a Translator.
type Option func(*Translator)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Translator) { t.now = now }
}

// WithIDSource replaces the message/session id generator.
func WithIDSource(newID func() string) Option {
	return func(t *Translator) { t.newID = newID }
}

// WithGuestSource replaces the random source for synthetic guest ids. It
// must return a value in [0, n).
func WithGuestSource(guestN func(n int) int) Option {
	return func(t *Translator) { t.guestN = guestN }
}

// WithKeepalive sets the keepalive advertised in the welcome handshake.
func WithKeepalive(d time.Duration) Option {
	return func(t *Translator) { t.keepalive = d }
}

// NewTranslator returns a Translator for the given broadcaster. Empty
// broadcaster fields fall back to the defaults.
func NewTranslator(b Broadcaster, opts ...Option) *Translator {
	if b.UserID == "" {
		b.UserID = DefaultBroadcasterID
	}
	if b.Login == "" {
		b.Login = DefaultBroadcasterLogin
	}
	t := &Translator{
		broadcaster: b,
		keepalive:   10 * time.Second,
		now:         time.Now,
		newID:       uuid.NewString,
		guestN:      rand.Intn,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Broadcaster returns the constant channel identity.
func (t *Translator) Broadcaster() Broadcaster {
	return t.broadcaster
}

// Notification wraps msg in a notification envelope. Id, timestamp and
// guest id are drawn at call time, so two calls never share them.
func (t *Translator) Notification(msg chat.Message) Envelope {
	return Envelope{
		Metadata: Metadata{
			MessageID:        t.newID(),
			MessageType:      MessageTypeNotification,
			MessageTimestamp: t.timestamp(),
			SubscriptionType: SubscriptionChatMessage,
		},
		Payload: NotificationPayload{
			Subscription: Subscription{Type: SubscriptionChatMessage},
			Event: ChatEvent{
				BroadcasterUserID:    t.broadcaster.UserID,
				BroadcasterUserLogin: t.broadcaster.Login,
				// A new guest per message; the real protocol requires a
				// chatter id but the page has no stable identity to offer.
				ChatterUserID:    "guest_" + strconv.Itoa(t.guestN(guestIDSpace)),
				ChatterUserLogin: msg.Sender(),
				ChatterUserName:  msg.Sender(),
				Message:          EventMessage{Text: msg.Text()},
			},
		},
	}
}

// Welcome builds the handshake for a freshly opened bot connection.
func (t *Translator) Welcome() Welcome {
	ts := t.timestamp()
	return Welcome{
		Metadata: Metadata{
			MessageID:        t.newID(),
			MessageType:      MessageTypeWelcome,
			MessageTimestamp: ts,
		},
		Payload: WelcomePayload{
			Session: WelcomeSession{
				ID:                      t.newID(),
				Status:                  "connected",
				ConnectedAt:             ts,
				KeepaliveTimeoutSeconds: int(t.keepalive / time.Second),
				ReconnectURL:            nil,
			},
		},
	}
}

func (t *Translator) timestamp() string {
	return t.now().UTC().Format(time.RFC3339Nano)
}
