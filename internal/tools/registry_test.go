package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeProvider is a scriptable Provider for registry tests.
type fakeProvider struct {
	name      string
	functions []FunctionInfo
	result    string
	err       error
	called    bool
	lastFn    string
	lastArgs  string
}

func (f *fakeProvider) Name() string              { return f.name }
func (f *fakeProvider) Functions() []FunctionInfo { return f.functions }

func (f *fakeProvider) Call(_ context.Context, fn, args string) (string, error) {
	f.called = true
	f.lastFn = fn
	f.lastArgs = args
	return f.result, f.err
}

func TestDispatchAllowListed(t *testing.T) {
	p := &fakeProvider{name: "memory", result: "stored"}
	r := NewRegistry([]string{"memory"}, nil)
	r.Register(p)

	got := r.Dispatch(context.Background(), "memory", "memory/set", `{"name":"n"}`)

	if got != "stored" {
		t.Errorf("Dispatch = %q, want %q", got, "stored")
	}
	if p.lastFn != "memory/set" || p.lastArgs != `{"name":"n"}` {
		t.Errorf("provider received fn=%q args=%q", p.lastFn, p.lastArgs)
	}
}

func TestDispatchRejectsUnlisted(t *testing.T) {
	p := &fakeProvider{name: "shell"}
	r := NewRegistry([]string{"memory"}, nil)
	r.Register(p)

	got := r.Dispatch(context.Background(), "shell", "shell/run", "{}")

	if p.called {
		t.Fatal("provider must not be invoked when not allow-listed")
	}
	if !strings.Contains(got, "shell") || !strings.Contains(got, "error") {
		t.Errorf("rejection must name the offending component: %q", got)
	}
}

func TestDispatchUnknownComponent(t *testing.T) {
	r := NewRegistry([]string{"ghost"}, nil)

	got := r.Dispatch(context.Background(), "ghost", "a/b", "{}")

	if !strings.Contains(got, "error") || !strings.Contains(got, "ghost") {
		t.Errorf("missing-provider error should name the component: %q", got)
	}
}

func TestDispatchProviderError(t *testing.T) {
	p := &fakeProvider{name: "web", err: errors.New("connection refused")}
	r := NewRegistry([]string{"web"}, nil)
	r.Register(p)

	got := r.Dispatch(context.Background(), "web", "web/fetch", "{}")

	if !strings.Contains(got, "error") {
		t.Errorf("provider failure must become an error string: %q", got)
	}
	if !strings.Contains(got, "web/fetch") || !strings.Contains(got, "connection refused") {
		t.Errorf("error string should include function and message: %q", got)
	}
}

func TestDispatchUnwrapsDoubleEncoding(t *testing.T) {
	tests := []struct {
		name   string
		result string
		want   string
	}{
		{"double encoded", `"line one\nline two"`, "line one\nline two"},
		{"plain text", "plain result", "plain result"},
		{"json object", `{"ok": true}`, `{"ok": true}`},
		{"unterminated quote", `"broken`, `"broken`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{name: "x", result: tt.result}
			r := NewRegistry([]string{"x"}, nil)
			r.Register(p)

			got := r.Dispatch(context.Background(), "x", "a/b", "{}")
			if got != tt.want {
				t.Errorf("Dispatch = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatForPromptEmpty(t *testing.T) {
	r := NewRegistry(nil, nil)
	if got := r.FormatForPrompt(); got != "No tools available." {
		t.Errorf("FormatForPrompt = %q", got)
	}

	// A registered but non-allow-listed provider stays out of the catalog.
	r2 := NewRegistry(nil, nil)
	r2.Register(&fakeProvider{name: "hidden", functions: []FunctionInfo{{Name: "a/b"}}})
	if got := r2.FormatForPrompt(); got != "No tools available." {
		t.Errorf("non-allow-listed provider leaked into catalog: %q", got)
	}
}

func TestFormatForPromptCatalog(t *testing.T) {
	r := NewRegistry([]string{"memory", "web"}, nil)
	r.Register(&fakeProvider{
		name: "web",
		functions: []FunctionInfo{{
			Name:        "web/fetch",
			Description: "Fetch a URL and extract readable text.",
			Params:      []Param{{Name: "url", Type: "string"}},
			Returns:     "string",
		}},
	})
	r.Register(&fakeProvider{
		name: "memory",
		functions: []FunctionInfo{{
			Name:        "memory/list-all",
			Description: "List memory document names.",
			Returns:     "list<string>",
		}},
	})

	got := r.FormatForPrompt()

	if !strings.HasPrefix(got, "Available tools:\n") {
		t.Errorf("catalog header missing: %q", got)
	}
	if !strings.Contains(got, "## memory / memory/list-all") {
		t.Error("memory function missing from catalog")
	}
	if !strings.Contains(got, "## web / web/fetch") {
		t.Error("web function missing from catalog")
	}
	if !strings.Contains(got, "  - url: string") {
		t.Error("parameter line missing")
	}
	if !strings.Contains(got, "  (none)\n") {
		t.Error("parameterless function should render (none)")
	}
	// Stable order: memory sorts before web.
	if strings.Index(got, "memory /") > strings.Index(got, "web /") {
		t.Error("catalog not in stable name order")
	}
}
