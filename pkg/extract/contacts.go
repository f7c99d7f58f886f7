// Package extract pulls structured contact fields out of crawled pages.
// Each field runs several independent methods merged by priority, not by
// voting: explicit markup beats structured data beats free-text regex.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/storage"
)

var (
	phoneRe = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}`)
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// "info at example dot com" and bracketed variants. Applied only when
	// every direct method came up empty.
	obfuscatedEmailRe = regexp.MustCompile(`(?i)([a-z0-9._%+\-]+)\s*(?:\[at\]|\(at\)|\bat\b)\s*([a-z0-9\-]+)\s*(?:\[dot\]|\(dot\)|\bdot\b)\s*([a-z]{2,6})`)

	// street-type token, then a state abbreviation and a 5-digit zip.
	addressRe = regexp.MustCompile(`\d+[^,\n]{0,60}\b(?i:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Court|Ct|Way|Pkwy|Parkway|Highway|Hwy)\b\.?[^,\n]{0,40},?\s+[A-Za-z .]{2,30},?\s+[A-Z]{2}\s+\d{5}`)

	socialHosts = []string{"facebook.com", "instagram.com", "linkedin.com", "twitter.com", "x.com", "youtube.com", "tiktok.com"}
)

// Contacts extracts phones, emails, an address and social links from a
// parsed page plus its cleaned body text.
func Contacts(doc *goquery.Document, bodyText string) storage.Contacts {
	var c storage.Contacts
	c.Phones = phones(doc, bodyText)
	c.Emails = emails(doc, bodyText)
	c.Address = address(doc, bodyText)
	c.Social = socialLinks(doc)
	return c
}

// phones merges methods in priority order: tel: links, data attributes,
// ld+json telephone, free-text regex. Structured data beats regex when
// they conflict because the regex happily matches fax numbers and zips.
func phones(doc *goquery.Document, bodyText string) []string {
	var out []string

	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if p := normalizePhone(strings.TrimPrefix(href, "tel:")); p != "" {
			out = append(out, p)
		}
	})

	doc.Find(`[data-phone], [data-telephone]`).Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"data-phone", "data-telephone"} {
			if v, ok := s.Attr(attr); ok {
				if p := normalizePhone(v); p != "" {
					out = append(out, p)
				}
			}
		}
	})

	for _, v := range jsonldValues(doc, "telephone") {
		if p := normalizePhone(v); p != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		for _, m := range phoneRe.FindAllString(bodyText, 3) {
			if p := normalizePhone(m); p != "" {
				out = append(out, p)
			}
		}
	}

	return utils.Dedupe(out)
}

func normalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return "(" + digits[0:3] + ") " + digits[3:6] + "-" + digits[6:10]
}

// emails merges mailto links, ld+json email, free-text regex, and finally
// a deobfuscation pass that only runs when nothing else matched.
func emails(doc *goquery.Document, bodyText string) []string {
	var out []string

	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		addr = strings.Split(addr, "?")[0]
		if e := normalizeEmail(addr); e != "" {
			out = append(out, e)
		}
	})

	for _, v := range jsonldValues(doc, "email") {
		if e := normalizeEmail(strings.TrimPrefix(v, "mailto:")); e != "" {
			out = append(out, e)
		}
	}

	if len(out) == 0 {
		for _, m := range emailRe.FindAllString(bodyText, 3) {
			if e := normalizeEmail(m); e != "" {
				out = append(out, e)
			}
		}
	}

	if len(out) == 0 {
		for _, m := range obfuscatedEmailRe.FindAllStringSubmatch(bodyText, 2) {
			candidate := m[1] + "@" + m[2] + "." + m[3]
			if e := normalizeEmail(candidate); e != "" {
				out = append(out, e)
			}
		}
	}

	return utils.Dedupe(out)
}

func normalizeEmail(raw string) string {
	e := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(e) {
		return ""
	}
	// Image filenames sneak through the free-text regex.
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"} {
		if strings.HasSuffix(e, ext) {
			return ""
		}
	}
	return e
}

// address prefers a schema.org PostalAddress, then microdata markup, then
// a free-text match requiring street type + state abbreviation + zip.
func address(doc *goquery.Document, bodyText string) string {
	if addr := jsonldPostalAddress(doc); addr != "" {
		return addr
	}

	if sel := doc.Find(`[itemtype*="PostalAddress"]`).First(); sel.Length() > 0 {
		parts := []string{}
		for _, prop := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode"} {
			if v := strings.TrimSpace(sel.Find(`[itemprop="` + prop + `"]`).First().Text()); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}

	if m := addressRe.FindString(bodyText); m != "" {
		return strings.Join(strings.Fields(m), " ")
	}
	return ""
}

func socialLinks(doc *goquery.Document) []string {
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lowered := strings.ToLower(href)
		for _, host := range socialHosts {
			if strings.Contains(lowered, host+"/") && !strings.Contains(lowered, "share") {
				out = append(out, strings.TrimSuffix(href, "/"))
				break
			}
		}
	})
	return utils.Dedupe(out)
}
