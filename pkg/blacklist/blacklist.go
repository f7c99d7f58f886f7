// Package blacklist decides whether a discovered URL should be excluded
// from the pipeline before any crawling happens.
package blacklist

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leadscope/leadscope/pkg/domains"
)

// ReasonMalformed is recorded for inputs whose domain cannot be normalized.
const ReasonMalformed = "malformed"

// Rules holds exclusion rules, immutable per run.
type Rules struct {
	// Domains maps exact normalized domains to an exclusion reason.
	Domains map[string]string `yaml:"domains"`
	// DomainPatterns are substring matches against the normalized domain.
	DomainPatterns []string `yaml:"domain_patterns"`
	// URLPatterns are substring matches against the full URL.
	URLPatterns []string `yaml:"url_patterns"`
}

// Load reads rules from a YAML file.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blacklist: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing blacklist: %w", err)
	}
	if r.Domains == nil {
		r.Domains = map[string]string{}
	}
	return &r, nil
}

// Default returns rules that exclude aggregator and platform domains which
// never represent an individual local business.
func Default() *Rules {
	r := &Rules{Domains: map[string]string{}}
	for _, d := range []string{
		"yelp.com", "yellowpages.com", "angi.com", "thumbtack.com",
		"homeadvisor.com", "bbb.org", "facebook.com", "instagram.com",
		"linkedin.com", "twitter.com", "x.com", "youtube.com",
		"mapquest.com", "foursquare.com", "nextdoor.com", "wikipedia.org",
		"reddit.com", "indeed.com", "glassdoor.com", "groupon.com",
	} {
		r.Domains[d] = "aggregator or platform"
	}
	r.DomainPatterns = []string{"directory", "listings", "citysearch"}
	r.URLPatterns = []string{"/biz/", "/listings/", "/directory/"}
	return r
}

// IsExcluded reports whether the url/domain pair matches any rule, and the
// reason for the first match. Check order is exact domain, then domain
// patterns, then URL patterns; the first match wins. Malformed domains are
// excluded rather than erroring.
func (r *Rules) IsExcluded(rawURL, domain string) (bool, string) {
	normalized, err := domains.Normalize(domain)
	if err != nil {
		return true, ReasonMalformed
	}

	if reason, ok := r.Domains[normalized]; ok {
		if reason == "" {
			reason = "blacklisted domain"
		}
		return true, reason
	}
	// Subdomains of an exact-blacklisted domain count too.
	for d, reason := range r.Domains {
		if strings.HasSuffix(normalized, "."+d) {
			if reason == "" {
				reason = "blacklisted domain"
			}
			return true, reason
		}
	}

	for _, p := range r.DomainPatterns {
		if p != "" && strings.Contains(normalized, p) {
			return true, fmt.Sprintf("domain matches pattern %q", p)
		}
	}

	lowered := strings.ToLower(rawURL)
	for _, p := range r.URLPatterns {
		if p != "" && strings.Contains(lowered, strings.ToLower(p)) {
			return true, fmt.Sprintf("url matches pattern %q", p)
		}
	}

	return false, ""
}
