package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wrenlabs/wren/internal/tools"
)

// Provider exposes the fetcher as the "web" tool component.
type Provider struct {
	fetcher *Fetcher
}

// NewProvider wraps a fetcher for tool dispatch.
func NewProvider(fetcher *Fetcher) *Provider {
	return &Provider{fetcher: fetcher}
}

// Name returns the component name.
func (p *Provider) Name() string { return "web" }

// Functions describes the web tool surface.
func (p *Provider) Functions() []tools.FunctionInfo {
	return []tools.FunctionInfo{{
		Name:        "web/fetch",
		Description: "Download a URL and extract its readable text content",
		Params: []tools.Param{
			{Name: "url", Type: "string"},
			{Name: "max_chars", Type: "integer (optional)"},
		},
		Returns: "JSON object with url, title, content, and status_code",
	}}
}

// Call dispatches a web function.
func (p *Provider) Call(ctx context.Context, function, argsJSON string) (string, error) {
	if function != "web/fetch" {
		return "", fmt.Errorf("unknown function %q", function)
	}
	var args struct {
		URL      string `json:"url"`
		MaxChars int    `json:"max_chars"`
	}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}

	result, err := p.fetcher.Fetch(ctx, args.URL, args.MaxChars)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(result)
	if err != nil {
		// Structured output failed; plain text still serves the model.
		return fmt.Sprintf("Title: %s\n\n%s", result.Title, result.Content), nil
	}
	return string(out), nil
}
