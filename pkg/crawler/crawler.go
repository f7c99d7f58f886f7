// Package crawler fetches a small, fixed set of pages per site and turns
// them into a cleaned CrawledSite snapshot. It never walks a site broadly;
// one page per kind is enough for classification and record building.
package crawler

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/extract"
	"github.com/leadscope/leadscope/pkg/storage"
)

// DefaultPageDelay spaces out fetches against the same site.
const DefaultPageDelay = 1200 * time.Millisecond

// PagePolicy maps a page kind to the link-text and href fragments that
// identify it. The first matching link per kind wins.
type PagePolicy map[string][]string

// DefaultPolicy covers the pages that carry contact and service signals on
// typical small-business sites.
func DefaultPolicy() PagePolicy {
	return PagePolicy{
		"contact":  {"contact", "get in touch", "reach us", "get-in-touch"},
		"about":    {"about", "our story", "who we are", "our-story", "company"},
		"services": {"services", "what we do", "our work", "offerings"},
	}
}

// pageKinds fixes iteration order so crawls are deterministic.
var pageKinds = []string{"contact", "about", "services"}

// Crawler fetches and assembles site snapshots.
type Crawler struct {
	Fetcher Fetcher
	Policy  PagePolicy
	Delay   time.Duration

	sleep func(time.Duration)
}

// New builds a Crawler with the default policy and delay.
func New(f Fetcher) *Crawler {
	return &Crawler{
		Fetcher: f,
		Policy:  DefaultPolicy(),
		Delay:   DefaultPageDelay,
		sleep:   time.Sleep,
	}
}

// Crawl fetches the seed page plus at most one related page per kind and
// returns the cleaned snapshot. A page that fails to fetch is recorded with
// its error and the crawl continues; Crawl itself only returns an error
// when even the seed page is unreachable.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) (*storage.CrawledSite, error) {
	if c.sleep == nil {
		c.sleep = time.Sleep
	}

	site := &storage.CrawledSite{
		URL:       seedURL,
		CrawledAt: time.Now().UTC(),
	}

	homeHTML, err := c.Fetcher.Fetch(ctx, seedURL)
	if err != nil {
		site.Pages = append(site.Pages, storage.Page{URL: seedURL, Kind: "home", Error: err.Error()})
		return site, err
	}

	homeDoc, err := goquery.NewDocumentFromReader(strings.NewReader(homeHTML))
	if err != nil {
		site.Pages = append(site.Pages, storage.Page{URL: seedURL, Kind: "home", Error: err.Error()})
		return site, err
	}
	cleanDocument(homeDoc)

	site.Pages = append(site.Pages, buildPage(seedURL, "home", homeHTML, homeDoc))
	site.SiteName = extract.SiteName(homeDoc)
	site.MetaDesc = extract.MetaDescription(homeDoc)

	docs := []*goquery.Document{homeDoc}
	texts := []string{site.Pages[0].BodyText}

	for _, kind := range pageKinds {
		target := findRelatedLink(homeDoc, seedURL, c.Policy[kind])
		if target == "" || target == seedURL {
			continue
		}

		c.sleep(c.Delay)
		html, err := c.Fetcher.Fetch(ctx, target)
		if err != nil {
			utils.Log.Debugf("page %s (%s): %v", target, kind, err)
			site.Pages = append(site.Pages, storage.Page{URL: target, Kind: kind, Error: err.Error()})
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			site.Pages = append(site.Pages, storage.Page{URL: target, Kind: kind, Error: err.Error()})
			continue
		}
		cleanDocument(doc)

		page := buildPage(target, kind, html, doc)
		site.Pages = append(site.Pages, page)
		docs = append(docs, doc)
		texts = append(texts, page.BodyText)
	}

	site.Contacts = mergeContacts(docs, texts)
	return site, nil
}

func buildPage(pageURL, kind, rawHTML string, doc *goquery.Document) storage.Page {
	return storage.Page{
		URL:      pageURL,
		Kind:     kind,
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		BodyText: pageText(rawHTML, pageURL),
		Headings: headings(doc),
	}
}

// findRelatedLink scans same-site anchors for the first one whose text or
// path contains any of the given fragments.
func findRelatedLink(doc *goquery.Document, seedURL string, fragments []string) string {
	base, err := url.Parse(seedURL)
	if err != nil {
		return ""
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Host != base.Host {
			return true
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}

		text := strings.ToLower(strings.TrimSpace(s.Text()))
		path := strings.ToLower(resolved.Path)
		for _, frag := range fragments {
			if strings.Contains(text, frag) || strings.Contains(path, frag) {
				resolved.Fragment = ""
				found = resolved.String()
				return false
			}
		}
		return true
	})
	return found
}

// mergeContacts runs extraction over every successful page and merges the
// results. Lists union across pages; the address takes the first non-empty
// hit because pages of one site rarely disagree and contact pages come
// after home in document order only when home lacked one.
func mergeContacts(docs []*goquery.Document, texts []string) storage.Contacts {
	var merged storage.Contacts
	for i, doc := range docs {
		c := extract.Contacts(doc, texts[i])
		merged.Phones = append(merged.Phones, c.Phones...)
		merged.Emails = append(merged.Emails, c.Emails...)
		merged.Social = append(merged.Social, c.Social...)
		if merged.Address == "" {
			merged.Address = c.Address
		}
	}
	merged.Phones = utils.Dedupe(merged.Phones)
	merged.Emails = utils.Dedupe(merged.Emails)
	merged.Social = utils.Dedupe(merged.Social)
	return merged
}
