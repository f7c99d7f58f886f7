// Package record turns evaluated candidates into canonical listings.
package record

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/leadscope/leadscope/pkg/storage"
)

// ErrInsufficientData means no usable business name could be resolved from
// any source. The candidate is rejected with this reason rather than
// producing a junk listing.
var ErrInsufficientData = errors.New("insufficient data to build record")

// SlugExistsFunc answers whether a slug is already taken.
type SlugExistsFunc func(ctx context.Context, slug string) (bool, error)

var (
	phoneLikeRe = regexp.MustCompile(`\d{3}[-.\s)]*\d{3}[-.\s]*\d{4}`)
	cityStateRe = regexp.MustCompile(`,\s*([A-Za-z .'\-]{2,30}),?\s+([A-Z]{2})\b`)
	nonSlugRe   = regexp.MustCompile(`[^a-z0-9]+`)
	multiDashRe = regexp.MustCompile(`-{2,}`)
	titleSepRe  = regexp.MustCompile(`\s*(?:\||–|—| - )\s*`)
	wordSplitRe = regexp.MustCompile(`[\s\-_]+`)
)

// nameDenylist rejects title fragments that are page furniture, not names.
var nameDenylist = []string{
	"home", "homepage", "welcome", "index", "contact", "contact us",
	"about", "about us", "services", "our services", "call now",
	"call today", "call us", "get a quote", "free estimate", "near me",
	"official site", "untitled",
}

// Build assembles a Record from an evaluated candidate and its crawled
// snapshot. slugExists is consulted until a free slug is found.
func Build(ctx context.Context, cand storage.Candidate, site *storage.CrawledSite, slugExists SlugExistsFunc) (storage.Record, error) {
	var siteName, metaDesc string
	var contacts storage.Contacts
	if site != nil {
		siteName = site.SiteName
		metaDesc = site.MetaDesc
		contacts = site.Contacts
	}
	if cand.Contacts != nil {
		contacts = *cand.Contacts
	}

	name := ResolveName(cand.Title, siteName, cand.Domain)
	if name == "" {
		return storage.Record{}, ErrInsufficientData
	}

	city, state := cityState(contacts.Address, cand.Region)

	slug, err := uniqueSlug(ctx, BaseSlug(name, city, state), slugExists)
	if err != nil {
		return storage.Record{}, err
	}

	rec := storage.Record{
		Slug:    slug,
		Domain:  cand.Domain,
		Name:    name,
		Website: "https://" + cand.Domain,
		City:    city,
		State:   state,
		Region:  cand.Region,
		Address: contacts.Address,
		Social:  contacts.Social,
		Summary: metaDesc,
	}
	if len(contacts.Phones) > 0 {
		rec.Phone = contacts.Phones[0]
	}
	if len(contacts.Emails) > 0 {
		rec.Email = contacts.Emails[0]
	}
	return rec, nil
}

// ResolveName picks a business name: the search-result title's leading
// segment if it survives the denylist, then the extracted site name, then
// a title-cased derivation from the domain itself.
func ResolveName(title, siteName, domain string) string {
	if n := nameFromTitle(title, domain); n != "" {
		return n
	}
	if n := strings.TrimSpace(siteName); n != "" && usableName(n, domain) {
		return n
	}
	return nameFromDomain(domain)
}

func nameFromTitle(title, domain string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	head := titleSepRe.Split(title, 2)[0]
	head = strings.Trim(strings.TrimSpace(head), ".,-")
	if !usableName(head, domain) {
		return ""
	}
	return head
}

func usableName(name, domain string) bool {
	if len(name) < 3 || len(name) > 80 {
		return false
	}
	if phoneLikeRe.MatchString(name) {
		return false
	}
	lowered := strings.ToLower(name)
	for _, bad := range nameDenylist {
		if lowered == bad {
			return false
		}
	}
	// A bare domain in the title carries no more signal than the domain.
	if strings.Contains(lowered, ".") && strings.ReplaceAll(lowered, " ", "") == domain {
		return false
	}
	return true
}

// nameFromDomain turns "joes-plumbing.com" into "Joes Plumbing".
func nameFromDomain(domain string) string {
	label := strings.SplitN(domain, ".", 2)[0]
	words := wordSplitRe.Split(label, -1)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	name := strings.TrimSpace(strings.Join(words, " "))
	if len(name) < 3 {
		return ""
	}
	return name
}

// cityState parses "123 Main St, Dallas, TX 75201" style addresses, falling
// back to a region key like "dallas-tx".
func cityState(address, region string) (string, string) {
	if m := cityStateRe.FindStringSubmatch(address); len(m) == 3 {
		return strings.TrimSpace(m[1]), m[2]
	}

	parts := strings.Split(region, "-")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if len(last) == 2 {
			city := strings.Join(parts[:len(parts)-1], " ")
			return titleCase(city), strings.ToUpper(last)
		}
	}
	return "", ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// BaseSlug builds the canonical slug: kebab(name)-kebab(city)-state.
func BaseSlug(name, city, state string) string {
	parts := []string{Kebab(name)}
	if c := Kebab(city); c != "" {
		parts = append(parts, c)
	}
	if s := Kebab(state); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "-")
}

// Kebab lowercases and collapses runs of non-alphanumerics to single dashes.
func Kebab(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'", "")
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = multiDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// uniqueSlug appends -2, -3 and so on until the slug is free. The base slug
// itself never carries a suffix.
func uniqueSlug(ctx context.Context, base string, slugExists SlugExistsFunc) (string, error) {
	if base == "" {
		return "", ErrInsufficientData
	}
	if slugExists == nil {
		return base, nil
	}

	slug := base
	for i := 2; ; i++ {
		taken, err := slugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
