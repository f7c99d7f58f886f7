package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// SaveCrawl writes (or replaces) the cached crawl output for a domain.
// The cache is durable and independent of the candidate lifecycle: a killed
// run is reconciled from it without re-crawling.
func (d *DB) SaveCrawl(ctx context.Context, site CrawledSite) error {
	payload, err := json.Marshal(site)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO crawl_cache(domain, url, crawled_at, payload) VALUES(?,?,?,?)
		 ON CONFLICT(domain) DO UPDATE SET url = excluded.url, crawled_at = excluded.crawled_at, payload = excluded.payload`,
		site.Domain, site.URL, site.CrawledAt.UTC(), string(payload))
	return err
}

// GetCrawl returns the cached crawl for a domain, or (nil, nil) when absent.
func (d *DB) GetCrawl(ctx context.Context, domain string) (*CrawledSite, error) {
	var payload string
	err := d.sql.QueryRowContext(ctx,
		`SELECT payload FROM crawl_cache WHERE domain = ?`, domain).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var site CrawledSite
	if err := json.Unmarshal([]byte(payload), &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// CrawledDomains returns the set of domains present in the crawl cache.
func (d *DB) CrawledDomains(ctx context.Context) (map[string]struct{}, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT domain FROM crawl_cache`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, err
		}
		out[domain] = struct{}{}
	}
	return out, rows.Err()
}
