package feed

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const maxDescriptionRunes = 500

var (
	textPolicy = bluemonday.StrictPolicy()
	// Block-level boundaries become spaces so adjacent paragraphs do not run together.
	blockBoundary = regexp.MustCompile(`(?i)<(br|/p|/div|/li|/h[1-6]|/tr|/blockquote)\b[^>]*>`)
)

// StripHTML removes all markup and entities and collapses whitespace.
func StripHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = blockBoundary.ReplaceAllString(s, " $0")
	s = html.UnescapeString(textPolicy.Sanitize(s))
	return collapseSpace(s)
}

// FirstImageSrc returns the src of the first <img> element in an HTML fragment.
func FirstImageSrc(fragment string) string {
	if !strings.Contains(strings.ToLower(fragment), "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}
