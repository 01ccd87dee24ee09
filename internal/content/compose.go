// Package content turns a stored draft (title, rich-text body, hashtags)
// into the plain-text message that is published.
package content

import (
	"strings"

	"github.com/nhankey2000/auto-post/internal/util"
	"golang.org/x/net/html"
)

// DefaultTitle is used when a draft has no title.
const DefaultTitle = "Untitled post"

// Compose builds the post message: the title in bold, a blank line, the
// body, then the hashtags on their own line.
func Compose(title, body string, hashtags []string) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	message := Bold(title) + "\n\n" + FormatBody(body)
	if tags := util.NormalizeHashtags(hashtags); len(tags) > 0 {
		message += "\n" + strings.Join(tags, " ")
	}
	return message
}

// FormatBody converts editor HTML into plain text: paragraph ends and line
// breaks become newlines, other markup is dropped, and each line is
// trimmed. A '<' that does not open a tag is kept as text.
func FormatBody(body string) string {
	body = util.NormalizeNewlines(body)

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(body))
	skip := 0
	for tt := z.Next(); tt != html.ErrorToken; tt = z.Next() {
		switch tt {
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			switch name, _ := z.TagName(); string(name) {
			case "br":
				b.WriteByte('\n')
			case "script", "style":
				if tt == html.StartTagToken {
					skip++
				}
			}
		case html.EndTagToken:
			switch name, _ := z.TagName(); string(name) {
			case "p":
				b.WriteByte('\n')
			case "script", "style":
				if skip > 0 {
					skip--
				}
			}
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Bold maps ASCII letters and digits to the Unicode mathematical bold
// block so the title stands out in clients that do not render markup.
func Bold(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 4)
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(0x1D400 + (r - 'A'))
		case r >= 'a' && r <= 'z':
			b.WriteRune(0x1D41A + (r - 'a'))
		case r >= '0' && r <= '9':
			b.WriteRune(0x1D7CE + (r - '0'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
