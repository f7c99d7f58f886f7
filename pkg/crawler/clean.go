package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/leadscope/leadscope/internal/utils"
)

// MaxBodyChars caps each page's extracted text. Downstream classification
// and generation inputs must stay tractable, so overflow is truncated, not
// an error.
const MaxBodyChars = 50000

var reWhitespace = regexp.MustCompile(`\s+`)

// cleanDocument strips non-content tags in place so both text extraction
// and contact extraction see the same cleaned tree.
func cleanDocument(doc *goquery.Document) {
	doc.Find("script:not([type='application/ld+json']), style, iframe, svg, noscript, canvas").Remove()
}

// pageText extracts readable body text. Readability handles boilerplate
// removal well on article-like pages; for sparse pages its output can be
// empty, in which case the cleaned document text is used instead.
func pageText(rawHTML, pageURL string) string {
	var text string
	if parsed, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(rawHTML), parsed); err == nil {
			text = article.TextContent
		}
	}
	if strings.TrimSpace(text) == "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML)); err == nil {
			cleanDocument(doc)
			text = doc.Find("body").Text()
		}
	}
	text = reWhitespace.ReplaceAllString(text, " ")
	return utils.TruncateRunes(strings.TrimSpace(text), MaxBodyChars)
}

// headings collects h1-h3 texts from a cleaned document.
func headings(doc *goquery.Document) []string {
	var out []string
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if len(out) >= 10 {
			return
		}
		if h := strings.TrimSpace(reWhitespace.ReplaceAllString(s.Text(), " ")); h != "" {
			out = append(out, h)
		}
	})
	return utils.Dedupe(out)
}
