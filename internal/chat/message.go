package chat

import "strings"

const (
	// BotSender is the display name every bot-originated message is shown under.
	BotSender = "Bot"
	// BotColor is the highlight colour used for bot-originated messages.
	BotColor = "#9147ff"
)

// Message is the canonical in-memory chat message relayed between the
// browser page and the bot. It is a value; fields are only set by the
// constructor.
type Message struct {
	sender string
	text   string
	color  string
	isBot  bool
}

// NewBrowserMessage builds the message shown to browsers. Bot messages are
// normalized to BotSender/BotColor; guest messages keep their sender and
// colour as given and an empty colour stays unset.
func NewBrowserMessage(sender, text string, isBot bool, color string) Message {
	if isBot {
		return Message{sender: BotSender, text: text, color: BotColor, isBot: true}
	}
	return Message{sender: sender, text: text, color: color}
}

func (m Message) Sender() string { return m.sender }
func (m Message) Text() string   { return m.text }
func (m Message) Color() string  { return m.color }
func (m Message) IsBot() bool    { return m.isBot }

// Payload returns the outbound browser representation of the message.
func (m Message) Payload() Payload {
	return Payload{
		User:  m.sender,
		Text:  m.text,
		Color: m.color,
		IsBot: m.isBot,
	}
}

// Payload is the data of an outbound "chat message" event.
type Payload struct {
	User  string `json:"user"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
	IsBot bool   `json:"isBot"`
}

// Inbound is the data of a "chat message" event submitted by a browser.
type Inbound struct {
	User  string `json:"user"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// Valid reports whether the event carries a usable sender.
func (in Inbound) Valid() bool {
	return strings.TrimSpace(in.User) != ""
}

// Message converts a guest event into a Message.
func (in Inbound) Message() Message {
	return NewBrowserMessage(in.User, in.Text, false, in.Color)
}
