package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// ErrQuotaExceeded signals the provider refused the call for quota reasons.
// Callers should stop issuing queries for the day rather than retry.
var ErrQuotaExceeded = errors.New("search provider quota exceeded")

const (
	defaultEndpoint = "https://www.googleapis.com/customsearch/v1"
	pageSize        = 10
)

// CSEClient queries a Google Custom-Search-style JSON API.
type CSEClient struct {
	apiKey   string
	engineID string
	endpoint string
	client   *retryablehttp.Client
}

// NewCSEClient builds a client. Transient HTTP failures are retried by the
// underlying client; quota errors are not.
func NewCSEClient(apiKey, engineID string) *CSEClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	// Keep the final response when retries run out so quota statuses are
	// still visible to the caller.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &CSEClient{
		apiKey:   apiKey,
		engineID: engineID,
		endpoint: defaultEndpoint,
		client:   rc,
	}
}

// SetEndpoint overrides the API endpoint, mainly for tests.
func (c *CSEClient) SetEndpoint(endpoint string) { c.endpoint = endpoint }

// Search fetches one page of results for query. Page is 1-based.
func (c *CSEClient) Search(ctx context.Context, query string, page int) ([]Result, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(pageSize))
	params.Set("start", strconv.Itoa((page-1)*pageSize+1))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w (HTTP %d)", ErrQuotaExceeded, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").Str
		if msg != "" {
			return nil, fmt.Errorf("search provider: %s", msg)
		}
		return nil, fmt.Errorf("search provider returned HTTP %d", resp.StatusCode)
	}

	var results []Result
	for _, item := range gjson.GetBytes(body, "items").Array() {
		link := item.Get("link").Str
		if link == "" {
			continue
		}
		results = append(results, Result{
			URL:     link,
			Title:   item.Get("title").Str,
			Snippet: item.Get("snippet").Str,
		})
	}
	return results, nil
}
