// Package tools defines the tool provider contract, the registry of
// named providers, and the dispatcher that the agent loop calls on
// the model's behalf.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Param describes one parameter of a tool function.
type Param struct {
	Name string
	Type string
}

// FunctionInfo describes one callable function for the prompt
// catalog. Function names are qualified interface/name style, e.g.
// "memory/get".
type FunctionInfo struct {
	Name        string
	Description string
	Params      []Param
	Returns     string
}

// Provider is a named component exposing callable functions. Call
// receives the function identifier and JSON-encoded arguments and
// returns JSON-encoded or plain text.
type Provider interface {
	Name() string
	Functions() []FunctionInfo
	Call(ctx context.Context, function, argsJSON string) (string, error)
}

// Registry holds tool providers and the allow-list governing which of
// them the model may invoke. The allow-list is an explicit value
// constructed once at startup from configuration; an empty allow-list
// permits nothing.
type Registry struct {
	providers map[string]Provider
	allowed   map[string]bool
	logger    *slog.Logger
}

// NewRegistry creates a registry allowing the named components.
func NewRegistry(allowed []string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	allowSet := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		name = strings.TrimSpace(name)
		if name != "" {
			allowSet[name] = true
		}
	}
	return &Registry{
		providers: make(map[string]Provider),
		allowed:   allowSet,
		logger:    logger,
	}
}

// Register adds a provider. Registration alone does not expose it to
// the model; the component must also be allow-listed.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Allowed reports whether the component may be invoked.
func (r *Registry) Allowed(component string) bool {
	return r.allowed[component]
}

// Dispatch invokes component/function with the given JSON arguments.
// It never returns an error: every failure mode resolves to a
// descriptive error string that becomes a tool_result message, so the
// model always receives something it can react to.
func (r *Registry) Dispatch(ctx context.Context, component, function, argsJSON string) string {
	if !r.Allowed(component) {
		r.logger.Warn("tool call to non-allow-listed component",
			"component", component,
			"function", function,
		)
		return fmt.Sprintf("error: component '%s' is not allow-listed", component)
	}

	provider, ok := r.providers[component]
	if !ok {
		return fmt.Sprintf("error: component '%s' is not available", component)
	}

	result, err := provider.Call(ctx, function, argsJSON)
	if err != nil {
		r.logger.Warn("tool call failed",
			"component", component,
			"function", function,
			"error", err,
		)
		return fmt.Sprintf("error: %s/%s failed: %v", component, function, err)
	}
	return unwrapJSONString(result)
}

// catalogProviders returns the registered, allow-listed providers in
// stable name order.
func (r *Registry) catalogProviders() []Provider {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		if r.allowed[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	providers := make([]Provider, 0, len(names))
	for _, name := range names {
		providers = append(providers, r.providers[name])
	}
	return providers
}

// FormatForPrompt renders the human-readable tool catalog injected
// into the model context.
func (r *Registry) FormatForPrompt() string {
	providers := r.catalogProviders()
	if len(providers) == 0 {
		return "No tools available."
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, p := range providers {
		for _, fn := range p.Functions() {
			fmt.Fprintf(&sb, "\n## %s / %s\n", p.Name(), fn.Name)
			fmt.Fprintf(&sb, "Description: %s\n", fn.Description)
			sb.WriteString("Parameters:\n")
			if len(fn.Params) == 0 {
				sb.WriteString("  (none)\n")
			} else {
				for _, param := range fn.Params {
					fmt.Fprintf(&sb, "  - %s: %s\n", param.Name, param.Type)
				}
			}
			fmt.Fprintf(&sb, "Returns: %s\n", fn.Returns)
		}
	}
	return sb.String()
}

// unwrapJSONString removes one layer of JSON string encoding when the
// transport double-encodes text, so the model sees human-readable
// content rather than an escaped string. Non-string JSON and plain
// text pass through unchanged.
func unwrapJSONString(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, `"`) {
		return s
	}
	var decoded string
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return s
	}
	return decoded
}
