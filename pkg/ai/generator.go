package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/storage"
)

// DefaultDelay spaces out model calls.
const DefaultDelay = 1500 * time.Millisecond

// Generator fills Summary, Description and Tags on records that have no
// generated description yet. Those fields belong to generation alone; the
// scraped meta description only ever serves as the pre-generation summary.
type Generator struct {
	Store     *storage.DB
	Describer Describer
	Delay     time.Duration

	sleep func(time.Duration)
}

// NewGenerator builds a Generator with the default delay.
func NewGenerator(store *storage.DB, d Describer) *Generator {
	return &Generator{
		Store:     store,
		Describer: d,
		Delay:     DefaultDelay,
		sleep:     time.Sleep,
	}
}

// Summary tallies one generation batch.
type Summary struct {
	Processed int
	Generated int
	Skipped   int
	Errored   int
}

// Run generates copy for every record in scope still missing a description.
func (g *Generator) Run(ctx context.Context, region string) (Summary, error) {
	if g.sleep == nil {
		g.sleep = time.Sleep
	}
	var sum Summary

	recs, err := g.Store.ListRecords(ctx, storage.RecordListOptions{Region: region})
	if err != nil {
		return sum, fmt.Errorf("listing records: %w", err)
	}

	first := true
	for i := range recs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rec := &recs[i]
		if rec.Description != "" {
			continue
		}
		sum.Processed++

		text := g.crawledText(ctx, rec.Domain)
		if text == "" {
			sum.Skipped++
			utils.Log.Debugf("no crawled text for %s, skipping generation", rec.Domain)
			continue
		}

		if !first {
			g.sleep(g.Delay)
		}
		first = false

		desc, err := g.Describer.Describe(ctx, Input{
			Name:     rec.Name,
			City:     rec.City,
			State:    rec.State,
			PageText: text,
		})
		if err != nil {
			sum.Errored++
			utils.Log.Errorf("generating copy for %s: %v", rec.Domain, err)
			continue
		}

		rec.Summary = desc.Summary
		rec.Description = desc.Description
		rec.Tags = desc.Tags
		if err := g.Store.UpdateRecord(ctx, *rec); err != nil {
			sum.Errored++
			utils.Log.Errorf("saving %s: %v", rec.Domain, err)
			continue
		}
		sum.Generated++
		utils.Log.Infof("generated copy for %s", rec.Slug)
	}
	return sum, nil
}

// crawledText joins the cached page texts for a domain.
func (g *Generator) crawledText(ctx context.Context, domain string) string {
	site, err := g.Store.GetCrawl(ctx, domain)
	if err != nil || site == nil {
		return ""
	}
	var parts []string
	for _, p := range site.Pages {
		if p.Error == "" && p.BodyText != "" {
			parts = append(parts, p.BodyText)
		}
	}
	return strings.Join(parts, "\n\n")
}
