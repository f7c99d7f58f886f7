// Package discovery turns search-provider results into pending candidates,
// filtering out blacklisted, already-processed and duplicate domains.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/blacklist"
	"github.com/leadscope/leadscope/pkg/domains"
	"github.com/leadscope/leadscope/pkg/search"
	"github.com/leadscope/leadscope/pkg/storage"
)

const (
	// MinDelay is the hard rate-limit floor between provider calls.
	// The upstream provider enforces daily quotas and burst throttling.
	MinDelay = 500 * time.Millisecond

	// DefaultMaxQueries caps the query cross product per run so a single
	// discover call cannot exhaust the daily quota.
	DefaultMaxQueries = 40
)

// Engine drives a discovery run.
type Engine struct {
	Store     *storage.DB
	Provider  search.Provider
	Rules     *blacklist.Rules
	Processed map[string]struct{}

	// Delay between provider calls; raised to MinDelay if lower.
	Delay      time.Duration
	MaxQueries int

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// Summary tallies per-result outcomes of a discovery run.
type Summary struct {
	Queries       int
	Results       int
	Added         int
	Updated       int
	Blacklisted   int
	AlreadyDone   int
	Duplicates    int
	Malformed     int
	FailedQueries int
}

// BuildQueries combines keyword templates with region and category terms
// into an ordered, bounded query list. Templates use %s for the region term
// and the category term is prepended.
func BuildQueries(templates, regionTerms, categoryTerms []string, max int) []string {
	if max <= 0 {
		max = DefaultMaxQueries
	}
	if len(categoryTerms) == 0 {
		categoryTerms = []string{""}
	}
	var queries []string
	for _, cat := range categoryTerms {
		for _, region := range regionTerms {
			for _, tmpl := range templates {
				q := fmt.Sprintf(tmpl, region)
				if cat != "" {
					q = cat + " " + q
				}
				queries = append(queries, q)
				if len(queries) >= max {
					return queries
				}
			}
		}
	}
	return queries
}

// Discover runs the given queries, fetching up to pageLimit result pages
// per query, and upserts surviving results as pending candidates tagged
// with region and category. A single failing query is logged and skipped;
// it never aborts the rest of the run.
func (e *Engine) Discover(ctx context.Context, queries []string, region, category string, pageLimit int) (*Summary, error) {
	if pageLimit < 1 {
		pageLimit = 1
	}
	delay := e.Delay
	if delay < MinDelay {
		delay = MinDelay
	}
	sleep := e.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	rules := e.Rules
	if rules == nil {
		rules = blacklist.Default()
	}

	sum := &Summary{}
	seen := make(map[string]struct{}) // within-session duplicate check
	first := true

	for _, query := range queries {
		sum.Queries++
		failed := false

		for page := 1; page <= pageLimit; page++ {
			if !first {
				sleep(delay)
			}
			first = false

			results, err := e.Provider.Search(ctx, query, page)
			if err != nil {
				utils.Log.Warnf("Query %q page %d failed, skipping: %v", query, page, err)
				failed = true
				break
			}
			if len(results) == 0 {
				break
			}

			for _, r := range results {
				sum.Results++
				e.ingest(ctx, r, region, category, rules, seen, sum)
			}
		}

		if failed {
			sum.FailedQueries++
		}
	}
	return sum, nil
}

func (e *Engine) ingest(ctx context.Context, r search.Result, region, category string, rules *blacklist.Rules, seen map[string]struct{}, sum *Summary) {
	domain, err := domains.Normalize(r.URL)
	if err != nil {
		utils.Log.Debugf("[skip-malformed] %s", r.URL)
		sum.Malformed++
		return
	}

	if excluded, reason := rules.IsExcluded(r.URL, domain); excluded {
		utils.Log.Debugf("[skip-blacklist] %s (%s)", domain, reason)
		sum.Blacklisted++
		return
	}
	if _, done := e.Processed[domain]; done {
		utils.Log.Debugf("[skip-processed] %s", domain)
		sum.AlreadyDone++
		return
	}
	if _, dup := seen[domain]; dup {
		sum.Duplicates++
		return
	}
	seen[domain] = struct{}{}

	outcome, err := e.Store.UpsertCandidate(ctx, storage.Candidate{
		Domain:   domain,
		URL:      r.URL,
		Title:    r.Title,
		Snippet:  r.Snippet,
		Region:   region,
		Category: category,
	})
	if err != nil {
		utils.Log.Warnf("Upsert failed for %s: %v", domain, err)
		return
	}
	switch outcome {
	case storage.UpsertInserted:
		sum.Added++
	case storage.UpsertUpdated:
		sum.Updated++
	case storage.UpsertDroppedTerminal:
		utils.Log.Debugf("[skip-terminal] %s", domain)
		sum.AlreadyDone++
	}
}
