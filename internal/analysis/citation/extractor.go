// Package citation splits agent answers into display prose and the inline
// citation markers the knowledge base embeds in them.
package citation

import (
	"regexp"
	"strings"
)

// markerPattern matches one inline marker of the form "[Source: ...]".
// Non-greedy up to the first closing bracket; nested brackets are not a
// shape the agent produces.
var markerPattern = regexp.MustCompile(`\[Source:[^\]]*\]`)

// Extract removes every citation marker from text and returns the cleaned
// prose plus the removed markers (brackets included) in their original
// left-to-right order. Text without markers comes back unchanged with a nil
// marker list. Extract never mutates its input and is deterministic.
func Extract(text string) (string, []string) {
	markers := markerPattern.FindAllString(text, -1)
	if len(markers) == 0 {
		return text, nil
	}

	clean := markerPattern.ReplaceAllString(text, "")
	clean = strings.TrimSpace(clean)
	return clean, markers
}
