// Package memory stores named free-text documents the agent can read
// and write across conversations. Each document is a markdown file
// under <state dir>/memory/<name>.md. The model decides what goes in
// them; this package only does the filing.
package memory

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is a directory of named markdown documents.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at <stateDir>/memory. The directory
// is created lazily on first write.
func NewStore(stateDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    filepath.Join(stateDir, "memory"),
		logger: logger,
	}
}

// validName rejects names that would escape the store directory.
func validName(name string) error {
	if name == "" {
		return fmt.Errorf("document name is empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".md")
}

// List returns the sorted names of all documents. A missing directory
// means no documents, not an error.
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

// Get returns a document's content, or "" when it does not exist.
func (s *Store) Get(name string) string {
	if validName(name) != nil {
		return ""
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return ""
	}
	return string(data)
}

// Set writes or replaces a document.
func (s *Store) Set(name, content string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	if err := os.WriteFile(s.path(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s.md: %w", name, err)
	}
	return nil
}

// Remove deletes a document. Removing a missing document is not an
// error.
func (s *Store) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s.md: %w", name, err)
	}
	return nil
}
