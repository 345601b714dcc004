package messenger

import (
	"encoding/json"
	"errors"

	"github.com/goldtouch/messenger-relay/internal/types"
)

var (
	// ErrNoMessage means the delivery carried no extractable message text
	// (e.g. a delivery receipt or an attachment-only event). Such events are
	// acknowledged and otherwise ignored.
	ErrNoMessage = errors.New("no message text in event")

	// ErrMalformedEvent means the payload did not match the event schema.
	ErrMalformedEvent = errors.New("malformed event payload")
)

// ParseEvent extracts the first available sender id and message text from a
// webhook delivery. Deliveries can batch multiple entries and messaging
// elements; only the first of each is used.
func ParseEvent(body []byte) (types.InboundMessage, error) {
	var event types.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return types.InboundMessage{}, ErrMalformedEvent
	}

	if len(event.Entry) == 0 || len(event.Entry[0].Messaging) == 0 {
		return types.InboundMessage{}, ErrMalformedEvent
	}

	m := event.Entry[0].Messaging[0]
	if m.Sender.ID == "" {
		return types.InboundMessage{}, ErrMalformedEvent
	}
	if m.Message == nil || m.Message.Text == "" {
		return types.InboundMessage{}, ErrNoMessage
	}

	return types.InboundMessage{
		SenderID:  m.Sender.ID,
		MessageID: m.Message.MID,
		Text:      m.Message.Text,
	}, nil
}
