package fetcher

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"charyscan/internal/normalize"
)

var (
	markdownImageExpr = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	bareImageExpr     = regexp.MustCompile(`https?://\S+\.(?:png|jpe?g|gif|webp)(?:\?\S*)?`)
	whitespaceExpr    = regexp.MustCompile(`\s+`)
)

// Preview derives display text from a post body: markdown image syntax,
// HTML tags, and bare image URLs are stripped before truncation. Post
// bodies mix markdown and HTML freely, so HTML goes through a real
// parser rather than a tag regex.
func Preview(body string, max int) string {
	text := markdownImageExpr.ReplaceAllString(body, " ")

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
		text = doc.Text()
	}

	text = bareImageExpr.ReplaceAllString(text, " ")
	text = whitespaceExpr.ReplaceAllString(text, " ")

	return normalize.Truncate(strings.TrimSpace(text), max)
}
