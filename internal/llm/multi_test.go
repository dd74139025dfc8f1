package llm

import (
	"context"
	"testing"
)

type recordingClient struct {
	name   string
	called *string
}

func (r *recordingClient) Prompt(ctx context.Context, model, prompt string) (string, error) {
	*r.called = r.name
	return "reply from " + r.name, nil
}

func TestProviderFor(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"claude-sonnet-4-5", "anthropic"},
		{"claude-haiku-4-5", "anthropic"},
		{"qwen3:4b", "ollama"},
		{"llama3.2", "ollama"},
		{"", "ollama"},
	}
	for _, tt := range tests {
		if got := providerFor(tt.model); got != tt.want {
			t.Errorf("providerFor(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestMultiClientRouting(t *testing.T) {
	var called string
	ollama := &recordingClient{name: "ollama", called: &called}
	anthropic := &recordingClient{name: "anthropic", called: &called}

	multi := NewMultiClient(ollama)
	multi.AddProvider("anthropic", anthropic)

	got, err := multi.Prompt(context.Background(), "claude-sonnet-4-5", "hi")
	if err != nil {
		t.Fatalf("Prompt error: %v", err)
	}
	if called != "anthropic" || got != "reply from anthropic" {
		t.Errorf("claude model routed to %q", called)
	}

	got, err = multi.Prompt(context.Background(), "qwen3:4b", "hi")
	if err != nil {
		t.Fatalf("Prompt error: %v", err)
	}
	if called != "ollama" || got != "reply from ollama" {
		t.Errorf("local model routed to %q", called)
	}
}

func TestMultiClientNoProvider(t *testing.T) {
	multi := NewMultiClient(nil)
	if _, err := multi.Prompt(context.Background(), "claude-x", "hi"); err == nil {
		t.Fatal("Prompt with no provider and nil fallback should error")
	}
}
