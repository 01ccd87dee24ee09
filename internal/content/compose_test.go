package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBold(t *testing.T) {
	assert.Equal(t, "𝐇𝐞𝐥𝐥𝐨 𝟐𝟎𝟐𝟓!", Bold("Hello 2025!"))
	assert.Equal(t, "𝐙𝐲𝟕", Bold("Zy7"))
	assert.Equal(t, "𝐕𝐢ệ𝐭", Bold("Việt"))
	assert.Equal(t, "", Bold(""))
}

func TestFormatBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraphs", "<p>First</p><p>Second</p>", "First\nSecond"},
		{"line breaks", "a<br>b<br/>c<br />d", "a\nb\nc\nd"},
		{"strips tags", "<p><strong>Bold</strong> and <em>em</em></p>", "Bold and em"},
		{"trims lines", "  one  \r\n   two   ", "one\ntwo"},
		{"entities", "<p>Fish &amp; chips</p>", "Fish & chips"},
		{"literal angle brackets", "<p>Giá 1 < 2 và 5 > 3</p>", "Giá 1 < 2 và 5 > 3"},
		{"plain text comparison", "a < b > c", "a < b > c"},
		{"arrow", "Swipe -> for more <3", "Swipe -> for more <3"},
		{"script dropped", "<p>keep</p><script>alert(1)</script>", "keep"},
		{"unicode escape newline", `one\u000Atwo`, "one\ntwo"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBody(tt.in))
		})
	}
}

func TestCompose(t *testing.T) {
	msg := Compose("Sale", "<p>Today only</p>", []string{"#deals", "shop"})
	assert.Equal(t, "𝐒𝐚𝐥𝐞\n\nToday only\n#deals #shop", msg)

	assert.Equal(t, Bold(DefaultTitle)+"\n\nbody", Compose("  ", "body", nil))
}

func TestDraftMessage(t *testing.T) {
	d := Draft{Title: "Hi", Content: "there", Hashtags: []string{"x"}}
	assert.Equal(t, "𝐇𝐢\n\nthere\n#x", d.Message())
}
