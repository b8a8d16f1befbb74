package ws

import (
	"encoding/json"
	"fmt"

	"github.com/hpwn/mockchat/internal/chat"
)

// EventChatMessage names chat frames in both directions on the browser socket.
const EventChatMessage = "chat message"

// Frame is one JSON message on the browser socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeChat builds the outbound chat frame for msg.
func EncodeChat(msg chat.Message) ([]byte, error) {
	data, err := json.Marshal(msg.Payload())
	if err != nil {
		return nil, fmt.Errorf("ws: encode chat payload: %w", err)
	}
	b, err := json.Marshal(Frame{Event: EventChatMessage, Data: data})
	if err != nil {
		return nil, fmt.Errorf("ws: encode frame: %w", err)
	}
	return b, nil
}

// DecodeChat parses an inbound browser frame. ok is false for frames that
// are not chat messages; err is set only when the frame is not valid JSON.
func DecodeChat(raw []byte) (in chat.Inbound, ok bool, err error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return chat.Inbound{}, false, fmt.Errorf("ws: decode frame: %w", err)
	}
	if f.Event != EventChatMessage || len(f.Data) == 0 {
		return chat.Inbound{}, false, nil
	}
	if err := json.Unmarshal(f.Data, &in); err != nil {
		return chat.Inbound{}, false, fmt.Errorf("ws: decode chat data: %w", err)
	}
	return in, true, nil
}
