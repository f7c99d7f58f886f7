// Package search talks to an external web-search provider. The provider is
// quota-limited and paginated; callers own rate limiting.
package search

import "context"

// Result is a single ranked search hit.
type Result struct {
	URL     string
	Title   string
	Snippet string
}

// Provider issues one search query for one result page (1-based).
type Provider interface {
	Search(ctx context.Context, query string, page int) ([]Result, error)
}
