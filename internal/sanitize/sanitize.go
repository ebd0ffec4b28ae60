// Package sanitize strips the code-fence wrapping the backend tends to add
// around configuration and markdown replies.
package sanitize

import (
	"regexp"
	"strings"
)

const fence = "```"

// fencedBlock matches a whole text bounded by one fenced code block,
// optionally tagged with a language name.
var fencedBlock = regexp.MustCompile("^```(?:[a-zA-Z]*\\n)?([\\s\\S]*?)\\n```$")

// Clean returns rawText without a surrounding code fence, trimmed.
// Stripping repeats until the text no longer changes, so Clean is idempotent.
func Clean(rawText string) string {
	text := strings.TrimSpace(rawText)
	for {
		next := strip(text)
		if next == text {
			return text
		}
		text = next
	}
}

func strip(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(text, fence) && strings.HasSuffix(text, fence) {
		if len(text) < 2*len(fence) {
			return ""
		}
		return strings.TrimSpace(text[len(fence) : len(text)-len(fence)])
	}
	return text
}
