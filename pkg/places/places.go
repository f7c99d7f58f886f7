// Package places looks businesses up in an external place directory.
package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// ErrQuotaExceeded signals the provider refused the request for quota
// reasons. Callers should stop the batch instead of burning retries.
var ErrQuotaExceeded = errors.New("places: provider quota exceeded")

const defaultEndpoint = "https://maps.googleapis.com/maps/api/place/textsearch/json"

// Place is the provider's view of a business.
type Place struct {
	ID          string
	Name        string
	Address     string
	Website     string
	Phone       string
	Rating      float64
	ReviewCount int
	Lat         float64
	Lng         float64
}

// Provider finds candidate places for a free-text query.
type Provider interface {
	FindPlaces(ctx context.Context, query string) ([]Place, error)
}

// Client is a narrow text-search consumer of a Google-Places-style API.
type Client struct {
	apiKey   string
	endpoint string
	http     *retryablehttp.Client
}

// NewClient builds a Client with sane retry defaults.
func NewClient(apiKey string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	// Keep the final response when retries run out so quota statuses are
	// still visible to the caller.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		http:     rc,
	}
}

// SetEndpoint overrides the API endpoint, mainly for tests.
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// FindPlaces runs one text search and returns up to five results.
func (c *Client) FindPlaces(ctx context.Context, query string) ([]Place, error) {
	u := c.endpoint + "?query=" + url.QueryEscape(query) + "&key=" + url.QueryEscape(c.apiKey)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("places: building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("places: reading response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places: unexpected status %d", resp.StatusCode)
	}

	status := gjson.GetBytes(body, "status").String()
	switch status {
	case "OK", "ZERO_RESULTS":
	case "OVER_QUERY_LIMIT":
		return nil, ErrQuotaExceeded
	default:
		msg := gjson.GetBytes(body, "error_message").String()
		return nil, fmt.Errorf("places: status %s: %s", status, msg)
	}

	var out []Place
	for _, item := range gjson.GetBytes(body, "results").Array() {
		out = append(out, Place{
			ID:          item.Get("place_id").String(),
			Name:        item.Get("name").String(),
			Address:     item.Get("formatted_address").String(),
			Website:     item.Get("website").String(),
			Phone:       item.Get("formatted_phone_number").String(),
			Rating:      item.Get("rating").Float(),
			ReviewCount: int(item.Get("user_ratings_total").Int()),
			Lat:         item.Get("geometry.location.lat").Float(),
			Lng:         item.Get("geometry.location.lng").Float(),
		})
		if len(out) == 5 {
			break
		}
	}
	return out, nil
}
