// Package domains canonicalizes URLs and hosts into deduplication keys.
// Two inputs normalize equal iff they should be treated as the same business.
package domains

import (
	"errors"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// ErrInvalidURL is returned when an input has no parseable host.
var ErrInvalidURL = errors.New("invalid url: no parseable host")

// Normalize canonicalizes a URL or bare host into a domain key:
// lowercase, leading "www." stripped, port/path/query/fragment dropped.
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(urlOrHost string) (string, error) {
	s := strings.TrimSpace(urlOrHost)
	if s == "" {
		return "", ErrInvalidURL
	}

	host := s
	// Bare hosts lack a scheme, which makes url.Parse put everything in Path.
	// Prepending one makes host detection reliable.
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		host = u.Hostname()
	} else {
		host = strings.Split(host, "/")[0]
		host = strings.Split(host, ":")[0]
	}

	host = strings.ToLower(strings.Trim(host, ". "))
	host = strings.TrimPrefix(host, "www.")

	if host == "" || !strings.Contains(host, ".") || strings.ContainsAny(host, " \t*") {
		return "", ErrInvalidURL
	}
	return host, nil
}

// RootDomain extracts the registrable domain from a host.
// e.g. "shop.example.co.uk" -> "example.co.uk", true
func RootDomain(host string) (string, bool) {
	normalized, err := Normalize(host)
	if err != nil {
		return "", false
	}
	root, err := publicsuffix.Domain(normalized)
	if err != nil {
		return "", false
	}
	return root, true
}
