package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wrenlabs/wren/internal/tools"
)

// Provider exposes the memory store as a tool component so the model
// can read and write its own documents.
type Provider struct {
	store *Store
}

// NewProvider wraps a store for tool dispatch.
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// Name returns the component name.
func (p *Provider) Name() string { return "memory" }

// Functions describes the memory tool surface.
func (p *Provider) Functions() []tools.FunctionInfo {
	return []tools.FunctionInfo{
		{
			Name:        "memory/list-all",
			Description: "List the names of all memory documents",
			Returns:     "JSON array of document names",
		},
		{
			Name:        "memory/get",
			Description: "Read a memory document",
			Params:      []tools.Param{{Name: "name", Type: "string"}},
			Returns:     "the document content, empty if it does not exist",
		},
		{
			Name:        "memory/set",
			Description: "Create or replace a memory document",
			Params: []tools.Param{
				{Name: "name", Type: "string"},
				{Name: "content", Type: "string"},
			},
			Returns: "confirmation",
		},
		{
			Name:        "memory/remove",
			Description: "Delete a memory document",
			Params:      []tools.Param{{Name: "name", Type: "string"}},
			Returns:     "confirmation",
		},
	}
}

type memoryArgs struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Call dispatches a memory function.
func (p *Provider) Call(ctx context.Context, function, argsJSON string) (string, error) {
	var args memoryArgs
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}

	switch function {
	case "memory/list-all":
		names := p.store.List()
		if names == nil {
			names = []string{}
		}
		out, err := json.Marshal(names)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case "memory/get":
		return p.store.Get(args.Name), nil
	case "memory/set":
		if err := p.store.Set(args.Name, args.Content); err != nil {
			return "", err
		}
		return fmt.Sprintf("saved memory document %q", args.Name), nil
	case "memory/remove":
		if err := p.store.Remove(args.Name); err != nil {
			return "", err
		}
		return fmt.Sprintf("removed memory document %q", args.Name), nil
	default:
		return "", fmt.Errorf("unknown function %q", function)
	}
}

// Mention returns the memory-availability notice for the model
// context. The wording differs depending on whether any documents
// exist yet.
func (p *Provider) Mention() string {
	names := p.store.List()
	if len(names) == 0 {
		return "You have persistent memory available. Use the memory tools to store and retrieve information across conversations."
	}
	return fmt.Sprintf("You have persistent memory files: %s. Use memory/get to retrieve them or memory/set to update them.", strings.Join(names, ", "))
}
