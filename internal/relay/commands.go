package relay

import (
	"github.com/hpwn/mockchat/internal/chat"
	"github.com/hpwn/mockchat/internal/eventsub"
	"github.com/hpwn/mockchat/internal/metrics"
)

// Command is one outbound delivery produced by planning an inbound event.
type Command interface {
	command()
}

// BroadcastCmd delivers Message to every browser connection.
type BroadcastCmd struct {
	Message   chat.Message
	Direction string
}

// BotNotifyCmd delivers Envelope to every bot connection.
type BotNotifyCmd struct {
	Envelope eventsub.Envelope
}

func (BroadcastCmd) command() {}
func (BotNotifyCmd) command() {}

// PlanBrowserChat turns a browser chat event into its deliveries: the
// message for every browser and the envelope for every bot. An event
// without a sender plans nothing.
func PlanBrowserChat(t *eventsub.Translator, in chat.Inbound) []Command {
	if !in.Valid() {
		return nil
	}
	msg := in.Message()
	return []Command{
		BroadcastCmd{Message: msg, Direction: metrics.BrowserToBrowser},
		BotNotifyCmd{Envelope: t.Notification(msg)},
	}
}

// PlanBotSend turns a bot's send-message call into a browser broadcast.
func PlanBotSend(text string) []Command {
	msg := chat.NewBrowserMessage(chat.BotSender, text, true, "")
	return []Command{
		BroadcastCmd{Message: msg, Direction: metrics.BotToBrowser},
	}
}
