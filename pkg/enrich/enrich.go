// Package enrich cross-references records against an external place
// directory, filling gaps and flagging records the directory cannot
// confirm.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/domains"
	"github.com/leadscope/leadscope/pkg/places"
	"github.com/leadscope/leadscope/pkg/storage"
)

// ErrNoMatch is internal to the package: an unmatched record is a recorded
// fact, not a batch failure.
var ErrNoMatch = errors.New("enrich: no matching place")

// MinNameSimilarity is the bigram-Dice floor for a name-based match.
const MinNameSimilarity = 0.5

// DefaultDelay spaces out provider calls.
const DefaultDelay = time.Second

// Enricher matches records to places and merges provider data in.
type Enricher struct {
	Store    *storage.DB
	Provider places.Provider
	Delay    time.Duration

	sleep func(time.Duration)
}

// New builds an Enricher with the default delay.
func New(store *storage.DB, provider places.Provider) *Enricher {
	return &Enricher{
		Store:    store,
		Provider: provider,
		Delay:    DefaultDelay,
		sleep:    time.Sleep,
	}
}

// Summary tallies one enrichment batch.
type Summary struct {
	Processed int
	Matched   int
	Unmatched int
	Errored   int
}

// Run enriches every record in scope that has not been externally verified
// yet. A provider quota error aborts the batch; anything else is per-item.
func (e *Enricher) Run(ctx context.Context, region string) (Summary, error) {
	if e.sleep == nil {
		e.sleep = time.Sleep
	}
	var sum Summary

	recs, err := e.Store.ListRecords(ctx, storage.RecordListOptions{Region: region})
	if err != nil {
		return sum, fmt.Errorf("listing records: %w", err)
	}

	first := true
	for i := range recs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if recs[i].ExternalVerified {
			continue
		}
		sum.Processed++

		if !first {
			e.sleep(e.Delay)
		}
		first = false

		err := e.Enrich(ctx, &recs[i])
		switch {
		case errors.Is(err, places.ErrQuotaExceeded):
			return sum, err
		case errors.Is(err, ErrNoMatch):
			sum.Unmatched++
		case err != nil:
			sum.Errored++
			utils.Log.Errorf("enriching %s: %v", recs[i].Domain, err)
			continue
		default:
			sum.Matched++
		}

		if err := e.Store.UpdateRecord(ctx, recs[i]); err != nil {
			sum.Errored++
			utils.Log.Errorf("saving %s: %v", recs[i].Domain, err)
		}
	}
	return sum, nil
}

// Enrich looks the record up and merges the best match in place. When no
// place matches, the record is marked unverified with a review issue and
// ErrNoMatch is returned so callers can tally it.
func (e *Enricher) Enrich(ctx context.Context, rec *storage.Record) error {
	query := rec.Name
	if rec.City != "" {
		query += " " + rec.City
	}
	if rec.State != "" {
		query += " " + rec.State
	}

	results, err := e.Provider.FindPlaces(ctx, query)
	if err != nil {
		return err
	}

	match := bestMatch(rec, results)
	if match == nil {
		rec.ExternalVerified = false
		rec.ReviewIssues = appendIssue(rec.ReviewIssues, storage.Issue{
			Severity: storage.SeverityWarning,
			Field:    "enrichment",
			Message:  "no external directory match",
		})
		utils.Log.Debugf("no place match for %s (%d results)", rec.Domain, len(results))
		return ErrNoMatch
	}

	merge(rec, match)
	return nil
}

// bestMatch prefers an exact website-domain match; otherwise the most
// name-similar place above the similarity floor whose address mentions the
// record's city.
func bestMatch(rec *storage.Record, results []places.Place) *places.Place {
	for i := range results {
		if results[i].Website == "" {
			continue
		}
		d, err := domains.Normalize(results[i].Website)
		if err == nil && d == rec.Domain {
			return &results[i]
		}
	}

	var best *places.Place
	var bestScore float64
	city := strings.ToLower(rec.City)
	for i := range results {
		score := DiceSimilarity(rec.Name, results[i].Name)
		if score <= MinNameSimilarity || score <= bestScore {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(results[i].Address), city) {
			continue
		}
		best = &results[i]
		bestScore = score
	}
	return best
}

// merge applies the match. The directory is authoritative for identity and
// location, so the name is overwritten and coordinates always land; phone
// and address only fill gaps. Email and social stay scrape-owned.
func merge(rec *storage.Record, p *places.Place) {
	rec.Name = p.Name
	rec.PlaceID = p.ID
	rec.Rating = p.Rating
	rec.ReviewCount = p.ReviewCount
	lat, lng := p.Lat, p.Lng
	rec.Latitude = &lat
	rec.Longitude = &lng
	rec.ExternalVerified = true

	if rec.Phone == "" {
		rec.Phone = p.Phone
	}
	if rec.Address == "" {
		rec.Address = p.Address
	}
}

// appendIssue adds an issue unless an identical one is already present.
func appendIssue(issues []storage.Issue, issue storage.Issue) []storage.Issue {
	for _, ex := range issues {
		if ex == issue {
			return issues
		}
	}
	return append(issues, issue)
}
