package wa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayClient sends outbound messages through a WhatsApp HTTP gateway
// (e.g. a whatsapp-web bridge). It implements Messenger.
type GatewayClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewGatewayClient(baseURL, token string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

func (c *GatewayClient) Send(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway send returned status %d", resp.StatusCode)
	}
	return nil
}
