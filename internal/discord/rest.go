// Package discord connects the agent to Discord: a minimal Gateway
// v10 websocket client for receiving messages and a REST client for
// replying. The bot only answers when mentioned, so it can sit in a
// busy guild without responding to everything.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wrenlabs/wren/internal/httpkit"
)

const restBaseURL = "https://discord.com/api/v10"

// RestClient covers the single REST call the bridge needs: creating a
// message in a channel.
type RestClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRestClient creates a REST client for the given bot token.
func NewRestClient(token string, logger *slog.Logger) *RestClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RestClient{
		token:      token,
		baseURL:    restBaseURL,
		httpClient: httpkit.NewClient(),
		logger:     logger,
	}
}

// SendMessage posts content to a channel.
func (c *RestClient) SendMessage(ctx context.Context, channelID, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send message: API error %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 1024))
	}
	return nil
}
