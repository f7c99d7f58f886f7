package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/leadscope/leadscope/internal/utils"
	"github.com/leadscope/leadscope/pkg/storage"
)

// Processor moves evaluated candidates to their terminal state: relevant
// independents become records and go listed, everything else goes rejected
// with a recorded reason.
type Processor struct {
	Store *storage.DB
}

// ProcessOptions filters which evaluated candidates are considered.
type ProcessOptions struct {
	Region   string
	Category string
	Domain   string
	Limit    int
}

// ProcessSummary tallies one batch.
type ProcessSummary struct {
	Processed int
	Listed    int
	Rejected  int
	Errored   int
}

// Process walks evaluated candidates in discovery order.
func (p *Processor) Process(ctx context.Context, opts ProcessOptions) (ProcessSummary, error) {
	var sum ProcessSummary

	evaluated, err := p.Store.ListCandidates(ctx, storage.ListOptions{
		Status:   storage.StatusEvaluated,
		Region:   opts.Region,
		Category: opts.Category,
		Domain:   opts.Domain,
	})
	if err != nil {
		return sum, fmt.Errorf("listing evaluated candidates: %w", err)
	}
	if opts.Limit > 0 && len(evaluated) > opts.Limit {
		evaluated = evaluated[:opts.Limit]
	}

	for _, cand := range evaluated {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Processed++

		if reason := rejectionReason(cand); reason != "" {
			if err := p.reject(ctx, cand.Domain, reason); err != nil {
				sum.Errored++
				continue
			}
			sum.Rejected++
			utils.Log.Infof("rejected %s: %s", cand.Domain, reason)
			continue
		}

		site, err := p.Store.GetCrawl(ctx, cand.Domain)
		if err != nil {
			sum.Errored++
			utils.Log.Errorf("reading crawl for %s: %v", cand.Domain, err)
			continue
		}

		rec, err := Build(ctx, cand, site, p.Store.SlugExists)
		if errors.Is(err, ErrInsufficientData) {
			if rerr := p.reject(ctx, cand.Domain, err.Error()); rerr != nil {
				sum.Errored++
				continue
			}
			sum.Rejected++
			utils.Log.Infof("rejected %s: %v", cand.Domain, err)
			continue
		}
		if err != nil {
			sum.Errored++
			utils.Log.Errorf("building record for %s: %v", cand.Domain, err)
			continue
		}

		if err := p.Store.InsertRecord(ctx, rec); err != nil {
			if errors.Is(err, storage.ErrDuplicateRecord) {
				// A record for this domain already exists; the candidate
				// slipped past the processed-set check.
				if rerr := p.Store.Transition(ctx, cand.Domain, storage.StatusSkipped, storage.TransitionPayload{
					Error: "record already exists",
				}); rerr != nil {
					sum.Errored++
					continue
				}
				sum.Rejected++
				continue
			}
			sum.Errored++
			utils.Log.Errorf("inserting record for %s: %v", cand.Domain, err)
			continue
		}

		if err := p.Store.Transition(ctx, cand.Domain, storage.StatusListed, storage.TransitionPayload{}); err != nil {
			sum.Errored++
			utils.Log.Errorf("listing %s: %v", cand.Domain, err)
			continue
		}
		sum.Listed++
		utils.Log.Infof("listed %s as %s", cand.Domain, rec.Slug)
	}

	return sum, nil
}

// rejectionReason returns a non-empty reason when the classification rules
// the candidate out.
func rejectionReason(cand storage.Candidate) string {
	cls := cand.Classification
	if cls == nil {
		return "no classification recorded"
	}
	if cls.IsPotentialChain {
		return fmt.Sprintf("potential chain (score %d)", cls.ChainScore)
	}
	if !cls.IsRelevant {
		return fmt.Sprintf("not relevant (score %d)", cls.RelevanceScore)
	}
	return ""
}

func (p *Processor) reject(ctx context.Context, domain, reason string) error {
	err := p.Store.Transition(ctx, domain, storage.StatusRejected, storage.TransitionPayload{Error: reason})
	if err != nil {
		utils.Log.Errorf("rejecting %s: %v", domain, err)
	}
	return err
}
