package telegram

import (
	"bytes"
	htmlesc "html"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// allowedTags are the HTML elements Telegram's HTML parse mode
// accepts. Everything else is flattened to text or whitespace.
var allowedTags = map[string]bool{
	"b": true, "i": true, "u": true, "s": true,
	"code": true, "pre": true, "a": true,
	"blockquote": true,
}

// renameTags maps semantic elements onto Telegram's short forms.
var renameTags = map[string]string{
	"strong": "b",
	"em":     "i",
	"del":    "s",
}

// RenderHTML converts model markdown into the HTML subset Telegram
// accepts. Unrenderable input degrades to escaped plain text.
func RenderHTML(markdown string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return htmlesc.EscapeString(markdown)
	}
	return sanitize(buf.String())
}

// sanitize walks rendered HTML token by token, keeping allowed tags,
// renaming semantic ones, and turning block structure into newlines.
func sanitize(rendered string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rendered))
	var out strings.Builder
	var bold, links int

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(out.String())

		case html.TextToken:
			out.WriteString(htmlesc.EscapeString(string(tokenizer.Text())))

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			tag := string(name)
			switch {
			case tag == "br":
				out.WriteString("\n")
			case tag == "li":
				out.WriteString("- ")
			case strings.HasPrefix(tag, "h") && len(tag) == 2 && tag[1] >= '1' && tag[1] <= '6':
				out.WriteString("<b>")
				bold++
			case renameTags[tag] != "":
				out.WriteString("<" + renameTags[tag] + ">")
			case tag == "a":
				// Links without an href are dropped entirely so the
				// output stays balanced.
				if hasAttr {
					if href := attrValue(tokenizer, "href"); href != "" {
						out.WriteString(`<a href="` + htmlesc.EscapeString(href) + `">`)
						links++
					}
				}
			case allowedTags[tag]:
				out.WriteString("<" + tag + ">")
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			switch {
			case tag == "p" || tag == "ul" || tag == "ol" || tag == "pre":
				if allowedTags[tag] {
					out.WriteString("</" + tag + ">")
				}
				out.WriteString("\n\n")
			case tag == "li":
				out.WriteString("\n")
			case strings.HasPrefix(tag, "h") && len(tag) == 2 && tag[1] >= '1' && tag[1] <= '6':
				if bold > 0 {
					out.WriteString("</b>")
					bold--
				}
				out.WriteString("\n\n")
			case renameTags[tag] != "":
				out.WriteString("</" + renameTags[tag] + ">")
			case tag == "a":
				if links > 0 {
					out.WriteString("</a>")
					links--
				}
			case allowedTags[tag]:
				out.WriteString("</" + tag + ">")
			}
		}
	}
}

// attrValue scans the current tag's attributes for key.
func attrValue(tokenizer *html.Tokenizer, key string) string {
	for {
		k, v, more := tokenizer.TagAttr()
		if string(k) == key {
			return string(v)
		}
		if !more {
			return ""
		}
	}
}
