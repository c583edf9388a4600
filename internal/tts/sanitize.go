package tts

import (
	"regexp"
	"strings"
	"unicode"
)

var codeBlockRe = regexp.MustCompile("(?s)```.*?```")

// Sanitize strips code fences, markup characters and anything outside
// a safe spoken-text subset, then squeezes whitespace. The result may
// be empty, in which case the item is not synthesized.
func Sanitize(text string) string {
	text = codeBlockRe.ReplaceAllString(text, "")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune(`,.!?–-:;()'"%`, r):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
