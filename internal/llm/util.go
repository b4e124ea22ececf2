// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"regexp"
	"strings"
)

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	bareObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// ExtractJSON pulls a JSON object out of free-form assistant text.
// A fenced ```json block wins; otherwise the span from the first '{' to the
// last '}' is returned. ok is false when neither is present.
func ExtractJSON(text string) (string, bool) {
	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1]), true
	}
	if m := bareObjectPattern.FindString(text); m != "" {
		return m, true
	}
	return "", false
}
