package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/classify"
	"github.com/leadscope/leadscope/pkg/storage"
)

// Runner drains pending candidates: crawl, classify, transition. Crawl
// results are cached before the candidate row moves, so a run killed
// mid-batch re-enters through the cache instead of re-fetching.
type Runner struct {
	Store      *storage.DB
	Crawler    *Crawler
	Classifier *classify.Classifier
}

// RunOptions filters which pending candidates a run picks up.
type RunOptions struct {
	Region   string
	Category string
	Domain   string
	Limit    int
}

// RunSummary tallies one batch.
type RunSummary struct {
	Processed  int
	Crawled    int
	Reconciled int
	Evaluated  int
	Errored    int
}

// Run processes pending candidates in discovery order.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (RunSummary, error) {
	var sum RunSummary

	pending, err := r.Store.ListCandidates(ctx, storage.ListOptions{
		Status:   storage.StatusPending,
		Region:   opts.Region,
		Category: opts.Category,
		Domain:   opts.Domain,
	})
	if err != nil {
		return sum, fmt.Errorf("listing pending candidates: %w", err)
	}
	if opts.Limit > 0 && len(pending) > opts.Limit {
		pending = pending[:opts.Limit]
	}

	for _, cand := range pending {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Processed++

		site, fromCache, err := r.siteFor(ctx, cand)
		if err != nil {
			sum.Errored++
			utils.Log.Warnf("crawl %s: %v", cand.Domain, err)
			if terr := r.Store.Transition(ctx, cand.Domain, storage.StatusError, storage.TransitionPayload{
				Error: err.Error(),
			}); terr != nil {
				utils.Log.Errorf("marking %s errored: %v", cand.Domain, terr)
			}
			continue
		}
		if fromCache {
			sum.Reconciled++
		} else {
			sum.Crawled++
		}

		cls := r.Classifier.Classify(site)
		payload := storage.TransitionPayload{
			CrawledAt:      site.CrawledAt,
			Classification: &cls,
			Contacts:       &site.Contacts,
		}
		if err := r.Store.Transition(ctx, cand.Domain, storage.StatusEvaluated, payload); err != nil {
			sum.Errored++
			utils.Log.Errorf("transitioning %s: %v", cand.Domain, err)
			continue
		}
		sum.Evaluated++
		utils.Log.Infof("evaluated %s (relevant=%v confidence=%s)", cand.Domain, cls.IsRelevant, cls.Confidence)
	}

	return sum, nil
}

// siteFor returns the cached snapshot when one exists, otherwise crawls
// and caches. The cache write happens before any candidate transition.
func (r *Runner) siteFor(ctx context.Context, cand storage.Candidate) (*storage.CrawledSite, bool, error) {
	cached, err := r.Store.GetCrawl(ctx, cand.Domain)
	if err != nil {
		return nil, false, fmt.Errorf("reading crawl cache: %w", err)
	}
	if cached != nil {
		return cached, true, nil
	}

	seed := cand.URL
	if seed == "" {
		seed = "https://" + cand.Domain
	}
	site, err := r.Crawler.Crawl(ctx, seed)
	if err != nil {
		return nil, false, err
	}
	site.Domain = cand.Domain

	if err := r.Store.SaveCrawl(ctx, *site); err != nil {
		return nil, false, fmt.Errorf("caching crawl for %s: %w", cand.Domain, err)
	}
	return site, false, nil
}

// Reconcile transitions pending candidates that already have a cached
// crawl, without any network work. Useful after an interrupted run.
func (r *Runner) Reconcile(ctx context.Context, opts RunOptions) (RunSummary, error) {
	var sum RunSummary

	crawled, err := r.Store.CrawledDomains(ctx)
	if err != nil {
		return sum, fmt.Errorf("listing crawled domains: %w", err)
	}

	pending, err := r.Store.ListCandidates(ctx, storage.ListOptions{
		Status:   storage.StatusPending,
		Region:   opts.Region,
		Category: opts.Category,
	})
	if err != nil {
		return sum, fmt.Errorf("listing pending candidates: %w", err)
	}

	for _, cand := range pending {
		if _, ok := crawled[cand.Domain]; !ok {
			continue
		}
		sum.Processed++

		site, err := r.Store.GetCrawl(ctx, cand.Domain)
		if err != nil || site == nil {
			sum.Errored++
			continue
		}

		cls := r.Classifier.Classify(site)
		crawledAt := site.CrawledAt
		if crawledAt.IsZero() {
			crawledAt = time.Now().UTC()
		}
		if err := r.Store.Transition(ctx, cand.Domain, storage.StatusEvaluated, storage.TransitionPayload{
			CrawledAt:      crawledAt,
			Classification: &cls,
			Contacts:       &site.Contacts,
		}); err != nil {
			sum.Errored++
			utils.Log.Errorf("reconciling %s: %v", cand.Domain, err)
			continue
		}
		sum.Reconciled++
		sum.Evaluated++
	}

	return sum, nil
}
