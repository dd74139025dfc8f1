// Package llm provides model backend clients. The agent core only
// needs one operation: send a prompt to a named model and get text
// back. Provider-specific wire formats stay inside this package.
package llm

import "context"

// Client is the model backend contract consumed by the agent loop.
type Client interface {
	// Prompt sends a single prompt to the named model and returns the
	// generated text. Errors are terminal for the caller's current
	// round; no retries are performed here.
	Prompt(ctx context.Context, model, prompt string) (string, error)
}
