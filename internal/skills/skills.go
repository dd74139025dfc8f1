// Package skills serves named instruction documents from
// <state dir>/skills/<name>.md. Skills are written by the operator,
// not the model: the tool surface is read-only, and every skill is
// also rendered into the model context at the start of a turn.
package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wrenlabs/wren/internal/tools"
)

// Store is a read-only directory of skill documents.
type Store struct {
	dir string
}

// NewStore creates a store rooted at <stateDir>/skills.
func NewStore(stateDir string) *Store {
	return &Store{dir: filepath.Join(stateDir, "skills")}
}

// List returns the sorted names of all skills. A missing directory
// means no skills.
func (s *Store) List() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if stem, ok := strings.CutSuffix(e.Name(), ".md"); ok {
			names = append(names, stem)
		}
	}
	sort.Strings(names)
	return names
}

// Get returns a skill's content, or "" when it does not exist.
func (s *Store) Get(name string) string {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name+".md"))
	if err != nil {
		return ""
	}
	return string(data)
}

// Render returns all skills formatted for the model context, one
// "### <name>" section per skill. Empty when there are no skills.
func (s *Store) Render() string {
	var sb strings.Builder
	for _, name := range s.List() {
		content := s.Get(name)
		if strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n### %s\n%s\n", name, content)
	}
	return sb.String()
}

// Provider exposes the skills store as a read-only tool component.
type Provider struct {
	store *Store
}

// NewProvider wraps a store for tool dispatch.
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// Name returns the component name.
func (p *Provider) Name() string { return "skills" }

// Functions describes the skills tool surface.
func (p *Provider) Functions() []tools.FunctionInfo {
	return []tools.FunctionInfo{
		{
			Name:        "skills/list-all",
			Description: "List the names of all skill documents",
			Returns:     "JSON array of skill names",
		},
		{
			Name:        "skills/get",
			Description: "Read a skill document",
			Params:      []tools.Param{{Name: "name", Type: "string"}},
			Returns:     "the skill content, empty if it does not exist",
		},
	}
}

// Call dispatches a skills function.
func (p *Provider) Call(ctx context.Context, function, argsJSON string) (string, error) {
	switch function {
	case "skills/list-all":
		names := p.store.List()
		if names == nil {
			names = []string{}
		}
		out, err := json.Marshal(names)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case "skills/get":
		var args struct {
			Name string `json:"name"`
		}
		if argsJSON != "" {
			if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
		}
		return p.store.Get(args.Name), nil
	default:
		return "", fmt.Errorf("unknown function %q", function)
	}
}
