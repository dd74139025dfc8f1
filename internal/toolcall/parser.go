// Package toolcall extracts structured tool-call requests from raw
// model output. Models request tool use with XML-style blocks:
//
//	<tool_call>
//	<component>component-name</component>
//	<function>interface/function</function>
//	<args>{"key": "value"}</args>
//	</tool_call>
//
// Several blocks may appear in one response, interleaved with free
// text. The grammar is deliberately minimal and the scanner is
// hand-written rather than a full XML parser: model output is
// unreliable, and parsing must degrade to free text instead of
// failing the turn.
package toolcall

import "strings"

const (
	openMarker  = "<tool_call>"
	closeMarker = "</tool_call>"
)

// Request is a single tool invocation extracted from model output.
type Request struct {
	// Component names the tool-providing component.
	Component string
	// Function is the qualified function identifier, interface/name style.
	Function string
	// Args is opaque JSON text, "{}" when the model omitted it.
	Args string
}

// Block renders the request back into its canonical textual form, as
// recorded in conversation history.
func (r Request) Block() string {
	var sb strings.Builder
	sb.WriteString(openMarker)
	sb.WriteString("\n<component>")
	sb.WriteString(r.Component)
	sb.WriteString("</component>\n<function>")
	sb.WriteString(r.Function)
	sb.WriteString("</function>\n<args>")
	sb.WriteString(r.Args)
	sb.WriteString("</args>\n")
	sb.WriteString(closeMarker)
	return sb.String()
}

// Parsed holds the result of scanning one model response.
type Parsed struct {
	// Calls are the valid tool-call requests in order of appearance.
	Calls []Request
	// Text are the trimmed free-text segments surrounding the blocks,
	// in original order.
	Text []string
}

// SurroundingText joins the free-text segments with newlines, or
// returns "" when there were none.
func (p *Parsed) SurroundingText() string {
	return strings.Join(p.Text, "\n")
}

// Parse scans model output for tool-call blocks. The second return is
// false when no valid tool call was found; the response is then a
// final answer, regardless of any free text.
//
// Recovery rules: an opening marker without a matching close turns
// the remainder into trailing free text; a block missing component or
// function is dropped silently; args default to "{}".
func Parse(response string) (*Parsed, bool) {
	parsed := &Parsed{}
	remaining := response
	for {
		openIdx := strings.Index(remaining, openMarker)
		if openIdx < 0 {
			if trimmed := strings.TrimSpace(remaining); trimmed != "" {
				parsed.Text = append(parsed.Text, trimmed)
			}
			break
		}
		if before := strings.TrimSpace(remaining[:openIdx]); before != "" {
			parsed.Text = append(parsed.Text, before)
		}
		bodyStart := openIdx + len(openMarker)
		closeIdx := strings.Index(remaining[bodyStart:], closeMarker)
		if closeIdx < 0 {
			// Malformed or truncated block: keep the rest as free text
			// rather than failing the whole turn.
			if trimmed := strings.TrimSpace(remaining); trimmed != "" {
				parsed.Text = append(parsed.Text, trimmed)
			}
			break
		}
		block := strings.TrimSpace(remaining[bodyStart : bodyStart+closeIdx])
		if req, ok := parseBlock(block); ok {
			parsed.Calls = append(parsed.Calls, req)
		}
		remaining = remaining[bodyStart+closeIdx+len(closeMarker):]
	}
	if len(parsed.Calls) == 0 {
		return nil, false
	}
	return parsed, true
}

// parseBlock extracts the three named sub-fields from a matched block
// body. Component and function are required; args are optional.
func parseBlock(block string) (Request, bool) {
	component, ok := extractTag(block, "component")
	if !ok {
		return Request{}, false
	}
	function, ok := extractTag(block, "function")
	if !ok {
		return Request{}, false
	}
	args, ok := extractTag(block, "args")
	if !ok {
		args = "{}"
	}
	return Request{Component: component, Function: function, Args: args}, true
}

// extractTag returns the trimmed body of the first <tag>...</tag>
// span in text.
func extractTag(text, tag string) (string, bool) {
	open := "<" + tag + ">"
	close := "</" + tag + ">"
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	start += len(open)
	end := strings.Index(text[start:], close)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(text[start : start+end]), true
}
