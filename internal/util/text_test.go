package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNewlines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb", "a\nb"},
		{"lone cr", "a\rb", "a\nb"},
		{"escaped unicode", `a\u000Ab`, "a\nb"},
		{"escaped lowercase unicode", `a\u000ab`, "a\nb"},
		{"escaped crlf", `a\u000D\u000Ab`, "a\nb"},
		{"escaped lowercase crlf", `a\u000d\u000ab`, "a\nb"},
		{"escaped lone cr", `a\u000Db`, "a\nb"},
		{"escaped lowercase lone cr", `a\u000db`, "a\nb"},
		{"backslash n left alone", `C:\new`, `C:\new`},
		{"already normal", "a\nb", "a\nb"},
		{"mixed", "t\r\n\r\nbody\\u000A#tag", "t\n\nbody\n#tag"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNewlines(tt.in))
		})
	}
}

func TestNormalizeHashtags(t *testing.T) {
	got := NormalizeHashtags([]string{"#travel", "food, Travel", "  ", "#sunset!"})
	assert.Equal(t, []string{"#travel", "#food", "#sunset"}, got)
	assert.Nil(t, NormalizeHashtags(nil))
}
