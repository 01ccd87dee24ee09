package util

import (
	"strings"
)

var newlineReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	`\u000D\u000A`, "\n",
	`\u000d\u000a`, "\n",
	`\u000D`, "\n",
	`\u000d`, "\n",
	`\u000A`, "\n",
	`\u000a`, "\n",
)

// NormalizeNewlines converts CRLF, lone CR and the literal escape texts
// `\u000D\u000A`, `\u000D` and `\u000A` (left behind by some editors and
// generators) into a line feed.
func NormalizeNewlines(s string) string {
	return newlineReplacer.Replace(s)
}

// NormalizeHashtags returns unique tags, each prefixed with '#', in input
// order. Tags may be given with or without the '#', or as one
// space/comma separated string.
func NormalizeHashtags(tags []string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, raw := range tags {
		for _, word := range strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' }) {
			tag := strings.TrimLeft(strings.TrimSpace(word), "#")
			tag = strings.TrimRight(tag, ".!?;:")
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, "#"+tag)
		}
	}
	return out
}
