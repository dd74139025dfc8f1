// Package conversation defines the persisted message log: message
// roles, the append-only log, and the file-backed store that owns one
// log per state directory.
package conversation

import "fmt"

// Role identifies who produced a message. The closed set lets the
// prompt builder switch exhaustively when rendering and truncating.
type Role int

const (
	// User is an inbound message from a human.
	User Role = iota
	// Assistant is model output addressed to the user.
	Assistant
	// ToolCall is the textual record of a tool invocation request.
	ToolCall
	// ToolResult is the textual record of a tool invocation outcome.
	ToolResult
)

// roleNames are the wire strings used in conversation.json and in
// rendered prompts. They must stay stable across releases: changing
// one silently orphans persisted history.
var roleNames = map[Role]string{
	User:       "user",
	Assistant:  "assistant",
	ToolCall:   "tool_call",
	ToolResult: "tool_result",
}

// String returns the persisted form of the role.
func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole converts a persisted role string back to a Role. Unknown
// strings map to Assistant so a log written by a newer build degrades
// to readable history instead of failing the load.
func ParseRole(s string) Role {
	for r, name := range roleNames {
		if name == s {
			return r
		}
	}
	return Assistant
}

// Message is one turn in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Log is the ordered, append-only message history for one
// conversation. Insertion order is the only ordering relation.
type Log []Message

// Append returns the log with a new message added.
func (l Log) Append(role Role, content string) Log {
	return append(l, Message{Role: role, Content: content})
}

// Evict drops the oldest messages until the log holds at most max
// entries. A max of zero or less disables eviction. This bound exists
// independently of the prompt character budget: it protects the
// on-disk log of a long-running conversation from unbounded growth.
func (l Log) Evict(max int) Log {
	if max <= 0 || len(l) <= max {
		return l
	}
	return l[len(l)-max:]
}
