// Package utils holds small text helpers shared by the chat, CLI and prompt renderers.
package utils

import (
	"strings"
)

const truncatedMarker = "...(truncated)\n"

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
// Newlines are folded to spaces for single-line display.
func TruncateText(text string, maxLen int) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateTail keeps the last maxLen runes of a log. The cut moves forward to
// the next line start when one is close, so the excerpt never opens mid-line.
func TruncateTail(log string, maxLen int) string {
	runes := []rune(log)
	if len(runes) <= maxLen {
		return log
	}

	truncated := string(runes[len(runes)-maxLen:])
	if idx := strings.Index(truncated, "\n"); idx > 0 && idx < 100 {
		truncated = truncated[idx+1:]
	}
	return truncatedMarker + truncated
}
