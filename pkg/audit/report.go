package audit

import (
	"context"
	"fmt"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/storage"
)

// Summary tallies one audit batch.
type Summary struct {
	Processed   int
	Clean       int
	NeedsReview int
	Errored     int
}

// Run audits every record in scope and persists the verdicts.
func Run(ctx context.Context, store *storage.DB, rules []Rule, region string) (Summary, error) {
	var sum Summary

	recs, err := store.ListRecords(ctx, storage.RecordListOptions{Region: region})
	if err != nil {
		return sum, fmt.Errorf("listing records: %w", err)
	}

	for i := range recs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Processed++

		Audit(&recs[i], rules)
		if err := store.UpdateRecord(ctx, recs[i]); err != nil {
			sum.Errored++
			utils.Log.Errorf("saving audit for %s: %v", recs[i].Domain, err)
			continue
		}
		if recs[i].NeedsReview {
			sum.NeedsReview++
		} else {
			sum.Clean++
		}
	}
	return sum, nil
}

// Report is a pure projection over the current record set, regenerated on
// every run rather than stored.
type Report struct {
	Total       int
	Clean       int
	NeedsReview int

	BySeverity map[string]int
	ByMessage  map[string]int
	ByRegion   map[string]RegionBreakdown
}

// RegionBreakdown splits one region's records by review state.
type RegionBreakdown struct {
	Total       int
	NeedsReview int
}

// BuildReport aggregates in a single pass over the records.
func BuildReport(records []storage.Record) Report {
	rep := Report{
		BySeverity: map[string]int{},
		ByMessage:  map[string]int{},
		ByRegion:   map[string]RegionBreakdown{},
	}

	for _, rec := range records {
		rep.Total++
		if rec.NeedsReview {
			rep.NeedsReview++
		} else {
			rep.Clean++
		}

		for _, issue := range rec.ReviewIssues {
			rep.BySeverity[issue.Severity]++
			rep.ByMessage[issue.Message]++
		}

		region := rec.Region
		if region == "" {
			region = "(none)"
		}
		rb := rep.ByRegion[region]
		rb.Total++
		if rec.NeedsReview {
			rb.NeedsReview++
		}
		rep.ByRegion[region] = rb
	}
	return rep
}
