package utils

import (
	"strings"
)

// CollapseWhitespace joins all whitespace runs, newlines included, into single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TidyMultiline collapses spaces within each line and trims blank leading and trailing lines.
// Line breaks are kept so player-facing notes can hold short paragraphs.
func TidyMultiline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = CollapseWhitespace(line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
