package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlTagPattern = regexp.MustCompile(`(?i)<\s*/?\s*(p|div|br|li|ul|ol|h[1-6]|span|strong|em|b|i|a|html|body|table|tr|td)\b[^>]*>`)

// blockElements end a line of text when flattened.
const blockElements = "p, div, br, li, h1, h2, h3, h4, h5, h6, tr, section, article"

// LooksLikeHTML reports whether pasted text carries HTML markup.
func LooksLikeHTML(text string) bool {
	return htmlTagPattern.MatchString(text)
}

// StripHTML extracts readable text from an HTML fragment or page. Block
// elements become line breaks and list items become bullets.
func StripHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer, iframe").Remove()

	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("# ")
	})
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return CleanText(doc.Text()), nil
}

// PrepareJobDescription cleans a pasted job description, stripping markup
// when present.
func PrepareJobDescription(text string) (string, error) {
	if LooksLikeHTML(text) {
		return StripHTML(text)
	}
	return CleanText(text), nil
}
