package types

// WebhookEvent is the Messenger event-notification envelope delivered to the
// webhook endpoint. Only the fields the relay reads are modeled.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

type Messaging struct {
	Sender    Participant     `json:"sender"`
	Recipient Participant     `json:"recipient"`
	Timestamp int64           `json:"timestamp"`
	Message   *ReceivedMessage `json:"message,omitempty"`
}

type Participant struct {
	ID string `json:"id"`
}

type ReceivedMessage struct {
	MID  string `json:"mid"`
	Text string `json:"text"`
}

// InboundMessage is the relay's flattened view of one webhook delivery:
// who sent it and what they said. It lives for the duration of a single
// request and is never persisted.
type InboundMessage struct {
	SenderID  string
	MessageID string
	Text      string
}
