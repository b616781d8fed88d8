package wa

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Handler consumes inbound messages. Handling runs on the webhook goroutine;
// implementations decide their own concurrency.
type Handler interface {
	HandleMessage(msg Message)
}

type webhookPayload struct {
	ChatID    string `json:"chatId"`
	From      string `json:"from"`
	Text      string `json:"text"`
	Body      string `json:"body"`
	FromSelf  bool   `json:"fromSelf"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}

// WebhookHandler accepts gateway POSTs and dispatches them to a Handler.
// Each message is handled on its own goroutine so slow remote calls in one
// conversation never delay another.
func WebhookHandler(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			log.Printf("webhook: invalid payload: %v", err)
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		chatID := p.ChatID
		if chatID == "" {
			chatID = p.From
		}
		text := p.Text
		if text == "" {
			text = p.Body
		}
		if chatID == "" {
			http.Error(w, "missing chat id", http.StatusBadRequest)
			return
		}

		ts := time.Now()
		if p.Timestamp > 0 {
			ts = time.Unix(p.Timestamp, 0)
		}

		msg := Message{
			ChatID:    chatID,
			Text:      text,
			FromSelf:  p.FromSelf,
			Timestamp: ts,
		}

		go h.HandleMessage(msg)

		w.WriteHeader(http.StatusNoContent)
	}
}
