package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/citelens/citelens-api/internal/constants"
	"github.com/citelens/citelens-api/internal/models"
)

// CompetitorValidator separates genuine industry competitors from
// incidental name-drops. The inclusion policy is deliberately asymmetric:
// a candidate is excluded only when its homepage was fetched successfully
// AND shares no keywords with the subject. Anything the validator could
// not verify stays in.
type CompetitorValidator struct {
	fetcher      PageFetcher
	logger       *slog.Logger
	deadline     time.Duration
	minOverlap   int
	fetchTimeout time.Duration
}

// NewCompetitorValidator creates a validator. deadline bounds the whole
// validation round; minOverlap is the shared-keyword count that confirms
// industry overlap.
func NewCompetitorValidator(fetcher PageFetcher, logger *slog.Logger, deadline time.Duration, minOverlap int) *CompetitorValidator {
	if deadline <= 0 {
		deadline = 15 * time.Second
	}
	if minOverlap <= 0 {
		minOverlap = 1
	}
	return &CompetitorValidator{
		fetcher:      fetcher,
		logger:       logger,
		deadline:     deadline,
		minOverlap:   minOverlap,
		fetchTimeout: 10 * time.Second,
	}
}

// Aggregate folds competitor mentions from all responses into ranked
// candidates. Citations count responses, not raw occurrences: a domain
// mentioned five times in one answer earns one citation.
func (v *CompetitorValidator) Aggregate(responses []models.ProviderResponse, subjectDomain string) []models.CompetitorCandidate {
	byDomain := make(map[string]*models.CompetitorCandidate)

	for _, resp := range responses {
		seenInResponse := make(map[string]bool)
		for _, mention := range resp.Mentions {
			if mention.Domain == subjectDomain || constants.IsNonCompetitorDomain(mention.Domain) {
				continue
			}

			cand, ok := byDomain[mention.Domain]
			if !ok {
				cand = &models.CompetitorCandidate{Domain: mention.Domain}
				byDomain[mention.Domain] = cand
			}
			cand.Mentions = append(cand.Mentions, mention)

			if !seenInResponse[mention.Domain] {
				seenInResponse[mention.Domain] = true
				cand.Citations++
				if !containsQueryType(cand.QueryTypes, resp.QueryType) {
					cand.QueryTypes = append(cand.QueryTypes, resp.QueryType)
				}
			}
		}
	}

	candidates := make([]models.CompetitorCandidate, 0, len(byDomain))
	for _, cand := range byDomain {
		candidates = append(candidates, *cand)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Citations != candidates[j].Citations {
			return candidates[i].Citations > candidates[j].Citations
		}
		return candidates[i].Domain < candidates[j].Domain
	})

	return candidates
}

type validationOutcome struct {
	index    int
	verified bool
	excluded bool
	shared   []string
}

// Validate crawls the top candidates concurrently under one global
// deadline and returns the top five survivors. Candidates whose fetch has
// not settled when the deadline elapses are treated as fetch failures and
// included unverified.
func (v *CompetitorValidator) Validate(ctx context.Context, candidates []models.CompetitorCandidate, subjectKeywords map[string]bool) []models.ValidatedCompetitor {
	if len(candidates) > constants.TopCandidatesForValidation {
		candidates = candidates[:constants.TopCandidatesForValidation]
	}
	if len(candidates) == 0 {
		return nil
	}

	// No subject keywords means the subject crawl degraded: nothing to
	// compare against, so every candidate is included unverified.
	if len(subjectKeywords) == 0 {
		return v.includeAllUnverified(candidates)
	}

	// Buffered so late finishers never block after the deadline fires
	results := make(chan validationOutcome, len(candidates))
	for i, cand := range candidates {
		go func(i int, domain string) {
			results <- v.validateOne(ctx, i, domain, subjectKeywords)
		}(i, cand.Domain)
	}

	outcomes := make(map[int]validationOutcome)
	timeout := time.After(v.deadline)
collect:
	for range candidates {
		select {
		case outcome := <-results:
			outcomes[outcome.index] = outcome
		case <-timeout:
			if v.logger != nil {
				v.logger.Warn("competitor validation deadline reached",
					"settled", len(outcomes),
					"total", len(candidates),
				)
			}
			break collect
		case <-ctx.Done():
			break collect
		}
	}

	var validated []models.ValidatedCompetitor
	for i, cand := range candidates {
		outcome, settled := outcomes[i]
		if settled && outcome.excluded {
			continue
		}
		validated = append(validated, models.ValidatedCompetitor{
			Domain:         cand.Domain,
			Citations:      cand.Citations,
			QueryTypes:     cand.QueryTypes,
			Verified:       settled && outcome.verified,
			SharedKeywords: outcome.shared,
		})
	}

	sort.SliceStable(validated, func(i, j int) bool {
		return validated[i].Citations > validated[j].Citations
	})
	if len(validated) > constants.TopCompetitorsReturned {
		validated = validated[:constants.TopCompetitorsReturned]
	}
	return validated
}

func (v *CompetitorValidator) includeAllUnverified(candidates []models.CompetitorCandidate) []models.ValidatedCompetitor {
	var validated []models.ValidatedCompetitor
	for _, cand := range candidates {
		validated = append(validated, models.ValidatedCompetitor{
			Domain:     cand.Domain,
			Citations:  cand.Citations,
			QueryTypes: cand.QueryTypes,
		})
	}
	if len(validated) > constants.TopCompetitorsReturned {
		validated = validated[:constants.TopCompetitorsReturned]
	}
	return validated
}

// validateOne fetches one candidate homepage and compares keywords.
// Fetch failure is "unknown", never exclusion.
func (v *CompetitorValidator) validateOne(ctx context.Context, index int, domain string, subjectKeywords map[string]bool) validationOutcome {
	summary, err := v.fetcher.FetchSummary(ctx, "https://"+domain, v.fetchTimeout)
	if err != nil || summary == nil {
		return validationOutcome{index: index}
	}

	shared := KeywordOverlap(subjectKeywords, ExtractKeywords(SummaryText(summary)))
	if len(shared) < v.minOverlap {
		return validationOutcome{index: index, excluded: true}
	}
	return validationOutcome{index: index, verified: true, shared: shared}
}

func containsQueryType(types []models.QueryType, t models.QueryType) bool {
	for _, existing := range types {
		if existing == t {
			return true
		}
	}
	return false
}
