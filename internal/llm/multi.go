package llm

import (
	"context"
	"fmt"
	"strings"
)

// MultiClient routes requests to the appropriate provider based on
// model name. Anthropic model names start with "claude"; everything
// else goes to the fallback (normally Ollama).
type MultiClient struct {
	clients  map[string]Client // provider name → client
	fallback Client            // default client for unrecognized models
}

// NewMultiClient creates a client that routes to multiple providers.
func NewMultiClient(fallback Client) *MultiClient {
	return &MultiClient{
		clients:  make(map[string]Client),
		fallback: fallback,
	}
}

// AddProvider registers a client for a provider name.
func (m *MultiClient) AddProvider(name string, client Client) {
	m.clients[name] = client
}

// clientFor returns the appropriate client for a model.
func (m *MultiClient) clientFor(model string) Client {
	if client, ok := m.clients[providerFor(model)]; ok {
		return client
	}
	return m.fallback
}

// providerFor infers the provider name from a model identifier.
func providerFor(model string) string {
	if strings.HasPrefix(model, "claude") {
		return "anthropic"
	}
	return "ollama"
}

// Prompt sends the request to the provider responsible for the model.
func (m *MultiClient) Prompt(ctx context.Context, model, prompt string) (string, error) {
	client := m.clientFor(model)
	if client == nil {
		return "", fmt.Errorf("no provider configured for model %q", model)
	}
	return client.Prompt(ctx, model, prompt)
}
