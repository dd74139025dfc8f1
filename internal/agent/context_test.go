package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wrenlabs/wren/internal/memory"
	"github.com/wrenlabs/wren/internal/skills"
	"github.com/wrenlabs/wren/internal/soul"
	"github.com/wrenlabs/wren/internal/tools"
)

func TestAssembleBareDefaults(t *testing.T) {
	a := &Assembler{StateDir: t.TempDir()}
	got := a.Assemble()
	if got != "You are a helpful assistant." {
		t.Errorf("Assemble = %q", got)
	}
}

func TestSystemPromptResolution(t *testing.T) {
	t.Run("configured prompt used when no file", func(t *testing.T) {
		a := &Assembler{StateDir: t.TempDir(), SystemPrompt: "You are Wren."}
		if got := a.Assemble(); got != "You are Wren." {
			t.Errorf("Assemble = %q", got)
		}
	})

	t.Run("file wins over configured prompt", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, "SYSTEM_PROMPT.md"), []byte("From the file."), 0o644)
		a := &Assembler{StateDir: dir, SystemPrompt: "From the config."}
		if got := a.Assemble(); got != "From the file." {
			t.Errorf("Assemble = %q", got)
		}
	})

	t.Run("blank file falls back", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, "SYSTEM_PROMPT.md"), []byte("  \n\n"), 0o644)
		a := &Assembler{StateDir: dir, SystemPrompt: "From the config."}
		if got := a.Assemble(); got != "From the config." {
			t.Errorf("Assemble = %q", got)
		}
	})
}

func TestAssembleToolSection(t *testing.T) {
	reg := tools.NewRegistry([]string{"echo"}, nil)
	reg.Register(&echoProvider{})
	a := &Assembler{StateDir: t.TempDir(), Registry: reg}

	got := a.Assemble()
	if !strings.Contains(got, "You have access to tools.") {
		t.Error("tool syntax instructions missing")
	}
	if !strings.Contains(got, "## echo / echo/say") {
		t.Errorf("tool catalog missing: %q", got)
	}
}

func TestAssembleOmitsEmptyToolSection(t *testing.T) {
	// Registered but not allow-listed: catalog is empty, so neither
	// the instructions nor the catalog should appear.
	reg := tools.NewRegistry(nil, nil)
	reg.Register(&echoProvider{})
	a := &Assembler{StateDir: t.TempDir(), Registry: reg}

	got := a.Assemble()
	if strings.Contains(got, "You have access to tools.") {
		t.Errorf("instructions should be omitted without tools: %q", got)
	}
	if strings.Contains(got, "No tools available.") {
		t.Errorf("empty-catalog sentinel leaked into context: %q", got)
	}
}

func TestAssembleCollaboratorSections(t *testing.T) {
	dir := t.TempDir()

	soulStore := soul.NewStore(dir)
	soulStore.Set("Terse and curious.")

	os.MkdirAll(filepath.Join(dir, "skills"), 0o755)
	os.WriteFile(filepath.Join(dir, "skills", "weather.md"), []byte("Use celsius."), 0o644)

	memStore := memory.NewStore(dir, nil)
	memStore.Set("people", "Alice likes tea.")

	a := &Assembler{
		StateDir: dir,
		Soul:     soulStore,
		Skills:   skills.NewStore(dir),
		Memory:   memory.NewProvider(memStore),
	}
	got := a.Assemble()

	soulIdx := strings.Index(got, "Your soul (personality & self-knowledge):\nTerse and curious.")
	skillIdx := strings.Index(got, "Your skills:\n")
	memIdx := strings.Index(got, "You have persistent memory files: people.")
	if soulIdx < 0 || skillIdx < 0 || memIdx < 0 {
		t.Fatalf("missing sections in %q", got)
	}
	if !(soulIdx < skillIdx && skillIdx < memIdx) {
		t.Error("sections out of order: soul, skills, memory expected")
	}
	if !strings.Contains(got, "### weather\nUse celsius.") {
		t.Errorf("skill body missing: %q", got)
	}
}

func TestAssembleEmptyCollaboratorsOmitted(t *testing.T) {
	dir := t.TempDir()
	a := &Assembler{
		StateDir: dir,
		Soul:     soul.NewStore(dir),
		Skills:   skills.NewStore(dir),
	}
	got := a.Assemble()
	if strings.Contains(got, "Your soul") || strings.Contains(got, "Your skills") {
		t.Errorf("empty collaborator sections should be omitted: %q", got)
	}
}

func TestAssembleMemoryMentionWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	a := &Assembler{
		StateDir: dir,
		Memory:   memory.NewProvider(memory.NewStore(dir, nil)),
	}
	if got := a.Assemble(); !strings.Contains(got, "You have persistent memory available.") {
		t.Errorf("memory availability notice missing: %q", got)
	}
}
