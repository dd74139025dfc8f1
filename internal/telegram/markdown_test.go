package telegram

import (
	"strings"
	"testing"
)

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want []string // substrings that must appear
		not  []string // substrings that must not appear
	}{
		{
			name: "bold and italic",
			md:   "this is **bold** and *italic*",
			want: []string{"<b>bold</b>", "<i>italic</i>"},
			not:  []string{"<strong>", "<em>", "<p>"},
		},
		{
			name: "inline code",
			md:   "run `go vet` first",
			want: []string{"<code>go vet</code>"},
		},
		{
			name: "code block",
			md:   "```\nfunc main() {}\n```",
			want: []string{"<pre>", "func main() {}", "</pre>"},
		},
		{
			name: "link",
			md:   "see [docs](https://example.com)",
			want: []string{`<a href="https://example.com">docs</a>`},
		},
		{
			name: "heading becomes bold",
			md:   "# Title\n\nbody",
			want: []string{"<b>Title</b>"},
			not:  []string{"<h1>"},
		},
		{
			name: "list items",
			md:   "- one\n- two",
			want: []string{"- one", "- two"},
			not:  []string{"<ul>", "<li>"},
		},
		{
			name: "angle brackets escaped",
			md:   "compare a < b and c > d",
			want: []string{"a &lt; b", "c &gt; d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderHTML(tt.md)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("RenderHTML(%q) = %q, missing %q", tt.md, got, w)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(got, n) {
					t.Errorf("RenderHTML(%q) = %q, should not contain %q", tt.md, got, n)
				}
			}
		})
	}
}

func TestRenderHTMLParagraphSeparation(t *testing.T) {
	got := RenderHTML("first paragraph\n\nsecond paragraph")
	if !strings.Contains(got, "first paragraph\n\nsecond paragraph") {
		t.Errorf("paragraphs should be newline separated: %q", got)
	}
}

func TestRenderHTMLBalancedTags(t *testing.T) {
	got := RenderHTML("**bold** with [link](https://example.com) and `code`")
	for _, tag := range []string{"b", "a", "code"} {
		opens := strings.Count(got, "<"+tag)
		closes := strings.Count(got, "</"+tag+">")
		if opens != closes {
			t.Errorf("tag %q unbalanced in %q: %d opens, %d closes", tag, got, opens, closes)
		}
	}
}
