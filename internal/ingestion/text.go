// Package ingestion turns pasted or uploaded documents into clean plain text.
package ingestion

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	spaceRun       = regexp.MustCompile(`\s+`)
	blankLineRun   = regexp.MustCompile(`\n\n\n+`)
	unicodeBullets = []string{"• ", "· ", "▪ ", "◦ "}
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	content = strings.ReplaceAll(content, "\u00a0", " ")

	// Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving headings, bullets and indentation
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	indent := len(line) - len(trimmed)

	// Markdown headings lose their indentation
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	// Unicode bullets from PDFs and word processors become markdown bullets
	for _, b := range unicodeBullets {
		if strings.HasPrefix(trimmed, b) {
			trimmed = "- " + strings.TrimPrefix(trimmed, b)
			break
		}
	}

	if isBulletLine(trimmed) {
		marker, rest := trimmed[:2], trimmed[2:]
		return strings.Repeat(" ", indent) + marker + spaceRun.ReplaceAllString(strings.TrimSpace(rest), " ")
	}

	return strings.Repeat(" ", indent) + spaceRun.ReplaceAllString(trimmed, " ")
}

// isBulletLine checks if a line is a markdown bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ")
}

// Truncate shortens text to at most maxRunes runes, cutting at a word boundary when possible.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)[:maxRunes]
	cut := string(runes)
	if i := strings.LastIndexAny(cut, " \n\t"); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
