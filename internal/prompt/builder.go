// Package prompt assembles the single prompt string sent to the model
// backend: the static context followed by as much recent conversation
// history as fits inside a character budget.
package prompt

import (
	"strings"

	"github.com/wrenlabs/wren/internal/conversation"
)

// conversationHeader separates the static context from the rendered
// history.
const conversationHeader = "\n\nConversation:\n"

// truncationMarker is appended to tool results cut at the truncation
// length.
const truncationMarker = "... (truncated)"

// Builder renders prompts under a character budget. This is a greedy
// most-recent-first admission policy: older messages are dropped
// wholesale when the budget is exhausted, never summarized.
type Builder struct {
	// MaxChars is the total prompt character budget. The assembled
	// prompt only exceeds it when the single most recent message is
	// itself over budget. That message is always included so the
	// user's latest turn is never silently dropped.
	MaxChars int
	// TruncateChars caps tool-result message content before admission.
	TruncateChars int
}

// NewBuilder creates a Builder with the given budgets.
func NewBuilder(maxChars, truncateChars int) *Builder {
	return &Builder{MaxChars: maxChars, TruncateChars: truncateChars}
}

// Build renders context plus the most recent messages that fit.
func (b *Builder) Build(context string, log conversation.Log) string {
	var prompt strings.Builder
	prompt.WriteString(context)
	prompt.WriteString(conversationHeader)

	remaining := b.MaxChars - prompt.Len()
	if remaining < 0 {
		remaining = 0
	}

	lines := make([]string, 0, len(log))
	used := 0
	for i := len(log) - 1; i >= 0; i-- {
		line := b.renderLine(log[i])
		if used+len(line) > remaining && len(lines) > 0 {
			break
		}
		used += len(line)
		lines = append(lines, line)
	}

	// Accumulated newest-first; restore chronological order.
	for i := len(lines) - 1; i >= 0; i-- {
		prompt.WriteString(lines[i])
	}
	return prompt.String()
}

// renderLine formats one message as "{role}: {content}\n", truncating
// oversized tool results first.
func (b *Builder) renderLine(m conversation.Message) string {
	content := m.Content
	if m.Role == conversation.ToolResult && b.TruncateChars > 0 && len(content) > b.TruncateChars {
		content = content[:b.TruncateChars] + truncationMarker
	}
	return m.Role.String() + ": " + content + "\n"
}
