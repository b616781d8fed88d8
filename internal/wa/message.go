package wa

import (
	"context"
	"time"
)

// Message is one inbound chat event as delivered by the WhatsApp gateway.
type Message struct {
	ChatID    string    `json:"chatId"`
	Text      string    `json:"text"`
	FromSelf  bool      `json:"fromSelf"`
	Timestamp time.Time `json:"timestamp"`
}

// Messenger sends outbound text to a conversation. Implementations must be
// safe for concurrent use.
type Messenger interface {
	Send(ctx context.Context, chatID, text string) error
}
