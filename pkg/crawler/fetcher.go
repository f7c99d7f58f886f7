package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

// Fetcher returns the rendered HTML for a URL. Implementations wrap the
// actual page-rendering collaborator; script-heavy sites need a browser
// engine behind this interface rather than a bare HTTP client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CollyFetcher fetches pages with colly, honoring a per-domain delay and a
// hard request timeout so a hung site cannot stall the whole batch.
type CollyFetcher struct {
	collector *colly.Collector
}

// NewCollyFetcher builds a fetcher. Timeout bounds a single fetch; delay is
// colly's per-domain politeness delay.
func NewCollyFetcher(timeout, delay time.Duration) (*CollyFetcher, error) {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(timeout)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       delay,
		RandomDelay: 500 * time.Millisecond,
	}); err != nil {
		return nil, err
	}
	return &CollyFetcher{collector: c}, nil
}

// Fetch retrieves a single page body.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	col := f.collector.Clone()

	var body string
	var fetchErr error
	col.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	col.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := col.Visit(url); err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	col.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("fetching %s: %w", url, fetchErr)
	}
	if body == "" {
		return "", fmt.Errorf("fetching %s: empty response", url)
	}
	return body, nil
}
