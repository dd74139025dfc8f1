package agent

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wrenlabs/wren/internal/config"
	"github.com/wrenlabs/wren/internal/memory"
	"github.com/wrenlabs/wren/internal/skills"
	"github.com/wrenlabs/wren/internal/soul"
	"github.com/wrenlabs/wren/internal/tools"
)

// systemPromptFile overrides the configured system prompt when present
// in the state directory and non-blank.
const systemPromptFile = "SYSTEM_PROMPT.md"

// toolSyntaxInstructions teaches the model the tool-call block format.
// Only injected when the catalog has at least one tool.
const toolSyntaxInstructions = `You have access to tools. To call a tool, use XML blocks:

<tool_call>
<component>component-name</component>
<function>interface/function</function>
<args>{"key": "value"}</args>
</tool_call>

You can make multiple tool calls in a single response.
After tool calls, you will receive the results and can
then respond to the user or call more tools.

`

// Assembler builds the static context text placed ahead of the
// conversation in every prompt. Sections appear in fixed order:
// system prompt, tool instructions and catalog, persona, skills,
// memory notice. Every collaborator is optional; a nil collaborator
// or a failing read just omits its section.
type Assembler struct {
	StateDir     string
	SystemPrompt string // fallback when SYSTEM_PROMPT.md is absent or blank
	Registry     *tools.Registry
	Soul         *soul.Store
	Skills       *skills.Store
	Memory       *memory.Provider
	Logger       *slog.Logger
}

// Assemble builds the context text. Called once per turn: the context
// is stable across tool rounds within a turn.
func (a *Assembler) Assemble() string {
	var sb strings.Builder
	sb.WriteString(a.systemPrompt())

	if a.Registry != nil {
		if catalog := a.Registry.FormatForPrompt(); catalog != "" && catalog != "No tools available." {
			sb.WriteString("\n\n")
			sb.WriteString(toolSyntaxInstructions)
			sb.WriteString(catalog)
		}
	}
	if a.Soul != nil {
		if text := a.Soul.Get(); text != "" {
			sb.WriteString("\n\nYour soul (personality & self-knowledge):\n")
			sb.WriteString(text)
		}
	}
	if a.Skills != nil {
		if text := a.Skills.Render(); text != "" {
			sb.WriteString("\n\nYour skills:\n")
			sb.WriteString(text)
		}
	}
	if a.Memory != nil {
		if mention := a.Memory.Mention(); mention != "" {
			sb.WriteString("\n\n")
			sb.WriteString(mention)
		}
	}
	return sb.String()
}

// systemPrompt resolves the system prompt: the SYSTEM_PROMPT.md file
// wins when non-blank, then the configured prompt, then the built-in
// default.
func (a *Assembler) systemPrompt() string {
	path := filepath.Join(a.StateDir, systemPromptFile)
	if data, err := os.ReadFile(path); err == nil {
		if contents := string(data); strings.TrimSpace(contents) != "" {
			return contents
		}
	}
	if a.SystemPrompt != "" {
		return a.SystemPrompt
	}
	return config.DefaultSystemPrompt
}
