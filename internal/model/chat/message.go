package chat

import "time"

// Message is a single turn of the conversation. Messages are immutable once
// created and the history is append-only until the conversation ends.
type Message struct {
	ID        string `json:"id,omitempty"`
	FromUser  bool   `json:"isUser"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage stamps a message with the current wall clock in epoch millis.
func NewMessage(fromUser bool, text string, now time.Time) Message {
	return Message{
		FromUser:  fromUser,
		Text:      text,
		Timestamp: now.UnixMilli(),
	}
}
