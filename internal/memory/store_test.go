package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestStoreSetGetRemove(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	if err := store.Set("people", "Alice likes tea."); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got := store.Get("people"); got != "Alice likes tea." {
		t.Errorf("Get = %q", got)
	}

	if err := store.Remove("people"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if got := store.Get("people"); got != "" {
		t.Errorf("Get after Remove = %q, want empty", got)
	}
}

func TestStoreListSorted(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	for _, name := range []string{"zebra", "alpha", "middle"} {
		if err := store.Set(name, "x"); err != nil {
			t.Fatalf("Set(%q): %v", name, err)
		}
	}
	want := []string{"alpha", "middle", "zebra"}
	if got := store.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestStoreListIgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	if err := store.Set("notes", "x"); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "memory", "stray.txt"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "memory", "subdir"), 0o755)

	if got := store.List(); !reflect.DeepEqual(got, []string{"notes"}) {
		t.Errorf("List = %v, want [notes]", got)
	}
}

func TestStoreEmptyDirectory(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	if got := store.List(); got != nil {
		t.Errorf("List on fresh store = %v, want nil", got)
	}
	if got := store.Get("anything"); got != "" {
		t.Errorf("Get on fresh store = %q", got)
	}
	if err := store.Remove("anything"); err != nil {
		t.Errorf("Remove of missing document should not error: %v", err)
	}
}

func TestStoreRejectsTraversalNames(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	for _, name := range []string{"", "../escape", "a/b", `a\b`} {
		if err := store.Set(name, "x"); err == nil {
			t.Errorf("Set(%q) should be rejected", name)
		}
	}
}

func TestProviderListAll(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	p := NewProvider(store)

	out, err := p.Call(context.Background(), "memory/list-all", "{}")
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if out != "[]" {
		t.Errorf("empty store list-all = %q, want []", out)
	}

	store.Set("facts", "water is wet")
	out, err = p.Call(context.Background(), "memory/list-all", "{}")
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(out), &names); err != nil {
		t.Fatalf("list-all output %q is not JSON: %v", out, err)
	}
	if !reflect.DeepEqual(names, []string{"facts"}) {
		t.Errorf("names = %v", names)
	}
}

func TestProviderSetGetRoundTrip(t *testing.T) {
	p := NewProvider(NewStore(t.TempDir(), nil))
	ctx := context.Background()

	if _, err := p.Call(ctx, "memory/set", `{"name":"plans","content":"world domination"}`); err != nil {
		t.Fatalf("set error: %v", err)
	}
	out, err := p.Call(ctx, "memory/get", `{"name":"plans"}`)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if out != "world domination" {
		t.Errorf("get = %q", out)
	}

	if _, err := p.Call(ctx, "memory/remove", `{"name":"plans"}`); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	if out, _ := p.Call(ctx, "memory/get", `{"name":"plans"}`); out != "" {
		t.Errorf("get after remove = %q", out)
	}
}

func TestProviderBadInput(t *testing.T) {
	p := NewProvider(NewStore(t.TempDir(), nil))
	ctx := context.Background()

	if _, err := p.Call(ctx, "memory/get", `{not json`); err == nil {
		t.Error("malformed args should error")
	}
	if _, err := p.Call(ctx, "memory/transmogrify", "{}"); err == nil {
		t.Error("unknown function should error")
	}
}

func TestMentionWording(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	p := NewProvider(store)

	if got := p.Mention(); !strings.Contains(got, "persistent memory available") {
		t.Errorf("empty-store mention = %q", got)
	}

	store.Set("alpha", "x")
	store.Set("beta", "y")
	got := p.Mention()
	if !strings.Contains(got, "alpha, beta") {
		t.Errorf("mention should name documents: %q", got)
	}
	if !strings.Contains(got, "memory/get") {
		t.Errorf("mention should point at the tools: %q", got)
	}
}
