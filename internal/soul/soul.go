// Package soul holds the agent's persona document: a single markdown
// file, <state dir>/SOUL.md, injected into every model context and
// editable by the model itself through the soul tools.
package soul

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wrenlabs/wren/internal/tools"
)

// Store reads and writes the persona document.
type Store struct {
	path string
}

// NewStore creates a store for <stateDir>/SOUL.md.
func NewStore(stateDir string) *Store {
	return &Store{path: filepath.Join(stateDir, "SOUL.md")}
}

// Get returns the persona text, or "" when the file does not exist.
func (s *Store) Get() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return string(data)
}

// Set replaces the persona text.
func (s *Store) Set(content string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write SOUL.md: %w", err)
	}
	return nil
}

// Provider exposes the persona as a tool component.
type Provider struct {
	store *Store
}

// NewProvider wraps a store for tool dispatch.
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// Name returns the component name.
func (p *Provider) Name() string { return "soul" }

// Functions describes the soul tool surface.
func (p *Provider) Functions() []tools.FunctionInfo {
	return []tools.FunctionInfo{
		{
			Name:        "soul/get",
			Description: "Read your persona document",
			Returns:     "the persona text, empty if none exists",
		},
		{
			Name:        "soul/set",
			Description: "Replace your persona document",
			Params:      []tools.Param{{Name: "content", Type: "string"}},
			Returns:     "confirmation",
		},
	}
}

// Call dispatches a soul function.
func (p *Provider) Call(ctx context.Context, function, argsJSON string) (string, error) {
	switch function {
	case "soul/get":
		return p.store.Get(), nil
	case "soul/set":
		var args struct {
			Content string `json:"content"`
		}
		if argsJSON != "" {
			if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
		}
		if err := p.store.Set(args.Content); err != nil {
			return "", err
		}
		return "saved persona document", nil
	default:
		return "", fmt.Errorf("unknown function %q", function)
	}
}
