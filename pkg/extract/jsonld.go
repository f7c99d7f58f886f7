package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// jsonldValues collects every string value for key anywhere inside the
// page's ld+json blocks. Structured data is the most trusted extraction
// source, so these results rank above free-text matches.
func jsonldValues(doc *goquery.Document, key string) []string {
	var out []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		parsed := gjson.Parse(raw)
		collectKey(parsed, key, &out)
	})
	return out
}

func collectKey(v gjson.Result, key string, out *[]string) {
	switch {
	case v.IsObject():
		v.ForEach(func(k, child gjson.Result) bool {
			if k.Str == key && child.Type == gjson.String && child.Str != "" {
				*out = append(*out, child.Str)
			}
			collectKey(child, key, out)
			return true
		})
	case v.IsArray():
		v.ForEach(func(_, child gjson.Result) bool {
			collectKey(child, key, out)
			return true
		})
	}
}

// jsonldPostalAddress assembles an address string from the first
// schema.org PostalAddress object found in ld+json blocks.
func jsonldPostalAddress(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		if addr := findPostalAddress(gjson.Parse(raw)); addr != "" {
			found = addr
			return false
		}
		return true
	})
	return found
}

func findPostalAddress(v gjson.Result) string {
	if v.IsObject() {
		if strings.Contains(v.Get("@type").Str, "PostalAddress") {
			parts := []string{}
			for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode"} {
				if s := strings.TrimSpace(v.Get(key).Str); s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, ", ")
			}
		}
		var found string
		v.ForEach(func(_, child gjson.Result) bool {
			if addr := findPostalAddress(child); addr != "" {
				found = addr
				return false
			}
			return true
		})
		return found
	}
	if v.IsArray() {
		var found string
		v.ForEach(func(_, child gjson.Result) bool {
			if addr := findPostalAddress(child); addr != "" {
				found = addr
				return false
			}
			return true
		})
		return found
	}
	return ""
}
