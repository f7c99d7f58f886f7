package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var copyrightRe = regexp.MustCompile(`(?:©|\(c\)|&copy;|Copyright)\s*(?:\d{4})?\s*(?:by\s+)?([A-Z][A-Za-z0-9&' \-]{2,60})`)

// SiteName resolves a business name from page markup, in decreasing order
// of trust: ld+json name, og:site_name, logo alt text, copyright line,
// title tag, first top-level heading.
func SiteName(doc *goquery.Document) string {
	for _, v := range jsonldValues(doc, "name") {
		if n := cleanName(v); n != "" {
			return n
		}
	}

	if v, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok {
		if n := cleanName(v); n != "" {
			return n
		}
	}

	var logoAlt string
	doc.Find(`img[alt]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		class, _ := s.Attr("class")
		if strings.Contains(strings.ToLower(src+" "+class), "logo") {
			alt, _ := s.Attr("alt")
			if n := cleanName(strings.TrimSuffix(alt, " logo")); n != "" {
				logoAlt = n
				return false
			}
		}
		return true
	})
	if logoAlt != "" {
		return logoAlt
	}

	pageText := doc.Find("footer").Text()
	if pageText == "" {
		pageText = doc.Text()
	}
	if m := copyrightRe.FindStringSubmatch(pageText); len(m) > 1 {
		if n := cleanName(m[1]); n != "" {
			return n
		}
	}

	if title := doc.Find("title").First().Text(); title != "" {
		if n := cleanName(splitTitle(title)); n != "" {
			return n
		}
	}

	if h1 := doc.Find("h1").First().Text(); h1 != "" {
		return cleanName(h1)
	}

	return ""
}

// MetaDescription returns the page's meta description, if any.
func MetaDescription(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// splitTitle cuts a page title at the first separator, keeping the part
// that usually carries the business name.
func splitTitle(title string) string {
	for _, sep := range []string{"|", " - ", " – "} {
		if i := strings.Index(title, sep); i > 0 {
			return title[:i]
		}
	}
	return title
}

func cleanName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, " .,-|")
	if len(s) < 2 || len(s) > 80 {
		return ""
	}
	return s
}
