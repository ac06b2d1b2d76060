// Package sanitize strips prose and markdown artifacts from generated
// text to isolate an executable snippet.
//
// Models wrap code in fenced blocks and conversational filler ("Here is
// the code you asked for..."). This package removes both with a
// heuristic, best-effort line filter. There is no formal grammar: the
// filter is a fixed point (sanitizing already-clean code returns it
// unchanged) and it never fails — at worst it returns an empty string.
package sanitize

import (
	"strings"
	"unicode"
)

// stockWords open conversational sentences rather than code.
var stockWords = []string{
	"Here", "Note", "This", "Sure", "Certainly", "Below",
	"Output", "Explanation", "Example", "First", "Finally",
}

// Sanitize removes fenced code-block delimiters and conversational
// prose lines from raw model output.
func Sanitize(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		if isProse(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// isProse reports whether a trimmed line reads like conversational text
// rather than code. Comments are never prose.
func isProse(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
		return false
	}
	for _, word := range stockWords {
		if trimmed == word || strings.HasPrefix(trimmed, word+" ") || strings.HasPrefix(trimmed, word+",") {
			return true
		}
	}
	// Capitalized sentence-like lines with a period, unless they carry
	// any code-shaped punctuation.
	first := []rune(trimmed)[0]
	if unicode.IsUpper(first) && strings.Contains(trimmed, ".") && !looksLikeCode(trimmed) {
		return true
	}
	return false
}

// looksLikeCode reports whether a line carries punctuation that prose
// sentences do not.
func looksLikeCode(line string) bool {
	return strings.ContainsAny(line, "(){}=;`\"") || strings.Contains(line, ":=")
}
