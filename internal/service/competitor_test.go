package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citelens/citelens-api/internal/models"
)

type mockFetcher struct {
	summaries map[string]*models.SiteSummary
	errs      map[string]error
	delay     time.Duration
}

func (m *mockFetcher) FetchSummary(ctx context.Context, pageURL string, _ time.Duration) (*models.SiteSummary, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := m.errs[pageURL]; ok {
		return nil, err
	}
	if summary, ok := m.summaries[pageURL]; ok {
		return summary, nil
	}
	return nil, &models.CrawlError{URL: pageURL, Err: errors.New("not found")}
}

func responseWithMentions(queryType models.QueryType, domains ...string) models.ProviderResponse {
	resp := models.ProviderResponse{QueryType: queryType, Provider: "openai"}
	for _, d := range domains {
		resp.Mentions = append(resp.Mentions, models.CompetitorMention{Domain: d})
	}
	return resp
}

func TestAggregate(t *testing.T) {
	v := NewCompetitorValidator(&mockFetcher{}, nil, time.Second, 1)

	responses := []models.ProviderResponse{
		responseWithMentions(models.QueryTypeAlternatives, "rival.com", "widgetco.io", "rival.com"),
		responseWithMentions(models.QueryTypeCompetitors, "rival.com"),
		responseWithMentions(models.QueryTypeBestProviders, "widgetco.io", "facebook.com", "acme-widgets.com"),
	}

	candidates := v.Aggregate(responses, "acme-widgets.com")

	if len(candidates) != 2 {
		t.Fatalf("Aggregate() = %d candidates, want 2", len(candidates))
	}
	if candidates[0].Domain != "rival.com" || candidates[0].Citations != 2 {
		t.Errorf("top candidate = %s/%d, want rival.com with 2 citations", candidates[0].Domain, candidates[0].Citations)
	}
	// Duplicate mentions within one response count once
	if len(candidates[0].QueryTypes) != 2 {
		t.Errorf("rival.com QueryTypes = %v, want 2 types", candidates[0].QueryTypes)
	}
	if candidates[1].Domain != "widgetco.io" || candidates[1].Citations != 2 {
		t.Errorf("second candidate = %s/%d, want widgetco.io with 2 citations", candidates[1].Domain, candidates[1].Citations)
	}
}

func subjectKeywords() map[string]bool {
	return ExtractKeywords("Industrial widget supplies and fasteners for manufacturing")
}

func TestValidateIncludesOnFetchFailure(t *testing.T) {
	fetcher := &mockFetcher{errs: map[string]error{
		"https://unreachable.com": errors.New("connection refused"),
	}}
	v := NewCompetitorValidator(fetcher, nil, time.Second, 1)

	candidates := []models.CompetitorCandidate{{Domain: "unreachable.com", Citations: 1}}
	got := v.Validate(context.Background(), candidates, subjectKeywords())

	if len(got) != 1 {
		t.Fatalf("Validate() = %d competitors, want 1 (fetch failure includes)", len(got))
	}
	if got[0].Verified {
		t.Error("unverifiable candidate must be included unverified")
	}
}

func TestValidateExcludesOnZeroOverlap(t *testing.T) {
	fetcher := &mockFetcher{summaries: map[string]*models.SiteSummary{
		"https://bakery.example": {Title: "Fresh sourdough bread and pastries daily"},
		"https://rival.com":      {Title: "Widget and fastener supplies for industrial manufacturing"},
	}}
	v := NewCompetitorValidator(fetcher, nil, time.Second, 1)

	candidates := []models.CompetitorCandidate{
		{Domain: "rival.com", Citations: 3},
		{Domain: "bakery.example", Citations: 2},
	}
	got := v.Validate(context.Background(), candidates, subjectKeywords())

	if len(got) != 1 {
		t.Fatalf("Validate() = %d competitors, want 1 (zero overlap excludes)", len(got))
	}
	if got[0].Domain != "rival.com" || !got[0].Verified {
		t.Errorf("survivor = %+v, want verified rival.com", got[0])
	}
	if len(got[0].SharedKeywords) == 0 {
		t.Error("verified competitor should carry its shared keywords")
	}
}

func TestValidateDeadlineIncludesUnsettled(t *testing.T) {
	fetcher := &mockFetcher{delay: 500 * time.Millisecond}
	v := NewCompetitorValidator(fetcher, nil, 50*time.Millisecond, 1)

	candidates := []models.CompetitorCandidate{
		{Domain: "slow-one.com", Citations: 2},
		{Domain: "slow-two.com", Citations: 1},
	}
	start := time.Now()
	got := v.Validate(context.Background(), candidates, subjectKeywords())

	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("Validate() took %v, deadline should bound the round", elapsed)
	}
	if len(got) != 2 {
		t.Fatalf("Validate() = %d competitors, want both included after deadline", len(got))
	}
	for _, c := range got {
		if c.Verified {
			t.Errorf("%s should be unverified after deadline", c.Domain)
		}
	}
}

func TestValidateTopFive(t *testing.T) {
	fetcher := &mockFetcher{errs: map[string]error{}}
	v := NewCompetitorValidator(fetcher, nil, time.Second, 1)

	var candidates []models.CompetitorCandidate
	for _, d := range []string{"a.com", "b.com", "c.com", "d.com", "e.com", "f.com", "g.com"} {
		candidates = append(candidates, models.CompetitorCandidate{Domain: d, Citations: len(candidates) + 1})
	}

	got := v.Validate(context.Background(), candidates, subjectKeywords())
	if len(got) != 5 {
		t.Errorf("Validate() = %d competitors, want top 5", len(got))
	}
}

func TestValidateNoSubjectKeywords(t *testing.T) {
	// Fetcher would exclude everything; degraded subject crawl must bypass it
	fetcher := &mockFetcher{summaries: map[string]*models.SiteSummary{
		"https://rival.com": {Title: "Totally unrelated content"},
	}}
	v := NewCompetitorValidator(fetcher, nil, time.Second, 1)

	candidates := []models.CompetitorCandidate{{Domain: "rival.com", Citations: 1}}
	got := v.Validate(context.Background(), candidates, nil)

	if len(got) != 1 {
		t.Fatal("with no subject keywords every candidate is included unverified")
	}
	if got[0].Verified {
		t.Error("candidate should be unverified without subject keywords")
	}
}
