package toolcall

import (
	"strings"
	"testing"
)

func TestParseSingleCall(t *testing.T) {
	input := "<tool_call>\n<component>memory</component>\n<function>memory/get</function>\n<args>{\"name\": \"notes\"}</args>\n</tool_call>"

	parsed, ok := Parse(input)
	if !ok {
		t.Fatal("Parse returned not-found for a valid block")
	}
	if len(parsed.Calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(parsed.Calls))
	}
	call := parsed.Calls[0]
	if call.Component != "memory" {
		t.Errorf("component = %q, want %q", call.Component, "memory")
	}
	if call.Function != "memory/get" {
		t.Errorf("function = %q, want %q", call.Function, "memory/get")
	}
	if call.Args != `{"name": "notes"}` {
		t.Errorf("args = %q", call.Args)
	}
	if len(parsed.Text) != 0 {
		t.Errorf("unexpected free text %q", parsed.Text)
	}
}

func TestParseNoCalls(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain text", "Hello! How can I help?"},
		{"empty", ""},
		{"whitespace", "  \n\t "},
		{"unclosed block", "thinking <tool_call><component>x</component>"},
		{"close without open", "text </tool_call> more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Parse(tt.input); ok {
				t.Errorf("Parse(%q) found calls, want none", tt.input)
			}
		})
	}
}

func TestParseMultipleCallsInOrder(t *testing.T) {
	input := "First I'll check the state.\n" +
		"<tool_call><component>home</component><function>state/get</function><args>{\"id\":\"1\"}</args></tool_call>\n" +
		"Then the forecast.\n" +
		"<tool_call><component>weather</component><function>forecast/today</function></tool_call>\n" +
		"Stand by."

	parsed, ok := Parse(input)
	if !ok {
		t.Fatal("Parse returned not-found")
	}
	if len(parsed.Calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(parsed.Calls))
	}
	if parsed.Calls[0].Component != "home" || parsed.Calls[1].Component != "weather" {
		t.Errorf("calls out of order: %+v", parsed.Calls)
	}
	if parsed.Calls[1].Args != "{}" {
		t.Errorf("missing args should default to {}, got %q", parsed.Calls[1].Args)
	}

	wantText := []string{"First I'll check the state.", "Then the forecast.", "Stand by."}
	if len(parsed.Text) != len(wantText) {
		t.Fatalf("got %d text segments %q, want %d", len(parsed.Text), parsed.Text, len(wantText))
	}
	for i, want := range wantText {
		if parsed.Text[i] != want {
			t.Errorf("text[%d] = %q, want %q", i, parsed.Text[i], want)
		}
	}
}

func TestParseMalformedBlockDropped(t *testing.T) {
	// Missing <function>: the block is dropped, not treated as a call
	// or an error, and surrounding text survives.
	input := "before <tool_call><component>x</component></tool_call> after"

	_, ok := Parse(input)
	if ok {
		t.Fatal("block missing function should yield zero calls")
	}

	// The same input alongside a valid block keeps only the valid one.
	input2 := input + "\n<tool_call><component>y</component><function>a/b</function></tool_call>"
	parsed, ok := Parse(input2)
	if !ok {
		t.Fatal("Parse returned not-found despite valid block")
	}
	if len(parsed.Calls) != 1 || parsed.Calls[0].Component != "y" {
		t.Errorf("calls = %+v, want single call to y", parsed.Calls)
	}
	joined := parsed.SurroundingText()
	if !strings.Contains(joined, "before") || !strings.Contains(joined, "after") {
		t.Errorf("free text lost around dropped block: %q", joined)
	}
}

func TestParseUnclosedBlockBecomesText(t *testing.T) {
	input := "narrative <tool_call><component>x</component><function>f/g</function>"
	if _, ok := Parse(input); ok {
		t.Fatal("unclosed block should not produce a call")
	}
}

func TestParseUnclosedAfterValidBlock(t *testing.T) {
	input := "<tool_call><component>x</component><function>f/g</function></tool_call>" +
		"<tool_call><component>truncated"

	parsed, ok := Parse(input)
	if !ok {
		t.Fatal("valid leading block should still parse")
	}
	if len(parsed.Calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(parsed.Calls))
	}
	if len(parsed.Text) != 1 || !strings.Contains(parsed.Text[0], "truncated") {
		t.Errorf("trailing malformed block should become free text, got %q", parsed.Text)
	}
}

func TestRequestBlockRoundTrip(t *testing.T) {
	req := Request{Component: "memory", Function: "memory/set", Args: `{"name":"n","content":"c"}`}

	parsed, ok := Parse(req.Block())
	if !ok || len(parsed.Calls) != 1 {
		t.Fatalf("Block output did not re-parse: %+v", parsed)
	}
	if parsed.Calls[0] != req {
		t.Errorf("round trip = %+v, want %+v", parsed.Calls[0], req)
	}
}
