package highlight

import (
	"regexp"
	"strings"
)

// boundary splits on sentence ends (., !, ? followed by whitespace) and on
// blank lines.
var boundary = regexp.MustCompile(`[.!?]\s+|\n\s*\n`)

// splitPhrases turns extracted text into the ordered candidate phrases used
// for re-location: phrases longer than minPhraseChars, capped at
// maxPhraseChars, at most maxFragments of them.
func splitPhrases(text string) []string {
	parts := boundary.Split(text, -1)
	phrases := make([]string, 0, len(parts))
	for _, part := range parts {
		phrase := strings.TrimSpace(part)
		if len(phrase) <= minPhraseChars {
			continue
		}
		phrase = truncate(phrase, maxPhraseChars)
		phrases = append(phrases, phrase)
		if len(phrases) >= maxFragments {
			break
		}
	}
	return phrases
}

// searchKey derives the prefix used to re-find a phrase in the document.
func searchKey(phrase string) string {
	return strings.TrimSpace(truncate(phrase, searchKeyChars))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
