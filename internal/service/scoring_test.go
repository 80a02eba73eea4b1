package service

import (
	"strings"
	"testing"

	"github.com/citelens/citelens-api/internal/models"
)

func citedResponse(queryType models.QueryType, cited bool) models.ProviderResponse {
	return models.ProviderResponse{QueryType: queryType, Provider: "openai", IsCited: cited}
}

func TestComputeTwoOfThreeCited(t *testing.T) {
	responses := []models.ProviderResponse{
		citedResponse(models.QueryTypeCompetitors, true),
		citedResponse(models.QueryTypeRecommendation, true),
		citedResponse(models.QueryTypeWhatDoes, false),
	}

	score := NewScoringEngine().Compute(responses, nil)

	if score.CitationRate != 66.67 {
		t.Errorf("CitationRate = %v, want 66.67", score.CitationRate)
	}
	// 20 base + 33.33 rate + 15 no-competitor bonus, rounded
	if score.VisibilityScore != 68 {
		t.Errorf("VisibilityScore = %d, want 68", score.VisibilityScore)
	}
	if score.MissedQueryTypes != 2 {
		t.Errorf("MissedQueryTypes = %d, want 2", score.MissedQueryTypes)
	}
	if score.MissedTraffic.MonthlyVisitors != 200 {
		t.Errorf("MonthlyVisitors = %d, want 200", score.MissedTraffic.MonthlyVisitors)
	}
	if score.MissedTraffic.YearlyVisitors != 2400 {
		t.Errorf("YearlyVisitors = %d, want 2400", score.MissedTraffic.YearlyVisitors)
	}
}

func TestComputeFullVisibility(t *testing.T) {
	responses := []models.ProviderResponse{
		citedResponse(models.QueryTypeAlternatives, true),
		citedResponse(models.QueryTypeCompetitors, true),
		citedResponse(models.QueryTypeBestProviders, true),
		citedResponse(models.QueryTypeRecommendation, true),
		citedResponse(models.QueryTypeWhatDoes, true),
	}

	score := NewScoringEngine().Compute(responses, nil)

	if score.CitationRate != 100 {
		t.Errorf("CitationRate = %v, want 100", score.CitationRate)
	}
	// 20 + 50 + 15 + 10 + 5 lands exactly on the cap
	if score.VisibilityScore != 100 {
		t.Errorf("VisibilityScore = %d, want 100", score.VisibilityScore)
	}
	if score.MissedQueryTypes != 0 {
		t.Errorf("MissedQueryTypes = %d, want 0", score.MissedQueryTypes)
	}
	if score.MissedTraffic.MonthlyVisitors != 0 {
		t.Errorf("MonthlyVisitors = %d, want 0", score.MissedTraffic.MonthlyVisitors)
	}
}

func TestComputeCompetitorPressure(t *testing.T) {
	responses := []models.ProviderResponse{
		citedResponse(models.QueryTypeCompetitors, false),
		citedResponse(models.QueryTypeRecommendation, false),
	}
	competitors := []models.ValidatedCompetitor{
		{Domain: "a.com"}, {Domain: "b.com"}, {Domain: "c.com"},
	}

	score := NewScoringEngine().Compute(responses, competitors)

	// 20 base, no rate or competitor bonus
	if score.VisibilityScore != 20 {
		t.Errorf("VisibilityScore = %d, want 20", score.VisibilityScore)
	}
	if score.MissedQueryTypes != 5 {
		t.Errorf("MissedQueryTypes = %d, want 5", score.MissedQueryTypes)
	}
	// 100 * 5 * 1.3
	if score.MissedTraffic.MonthlyVisitors != 650 {
		t.Errorf("MonthlyVisitors = %d, want 650", score.MissedTraffic.MonthlyVisitors)
	}
}

func TestComputeFewCompetitorsBonus(t *testing.T) {
	responses := []models.ProviderResponse{citedResponse(models.QueryTypeCompetitors, true)}
	competitors := []models.ValidatedCompetitor{{Domain: "a.com"}}

	score := NewScoringEngine().Compute(responses, competitors)

	// 20 + 50 (rate capped) + 5 (1-2 competitors)
	if score.VisibilityScore != 75 {
		t.Errorf("VisibilityScore = %d, want 75", score.VisibilityScore)
	}
}

func TestComputeTombstonesCountAgainstRate(t *testing.T) {
	responses := []models.ProviderResponse{
		citedResponse(models.QueryTypeCompetitors, true),
		{QueryType: models.QueryTypeRecommendation, Provider: "anthropic", Err: "timeout"},
	}

	score := NewScoringEngine().Compute(responses, nil)

	if score.CitationRate != 50 {
		t.Errorf("CitationRate = %v, want 50 (failed query is an uncited query)", score.CitationRate)
	}
}

func TestComputeEmpty(t *testing.T) {
	score := NewScoringEngine().Compute(nil, nil)
	if score.CitationRate != 0 || score.VisibilityScore != 0 {
		t.Errorf("empty input should produce a zero score, got %+v", score)
	}
}

func TestRecommendations(t *testing.T) {
	t.Run("low visibility", func(t *testing.T) {
		responses := []models.ProviderResponse{citedResponse(models.QueryTypeCompetitors, false)}
		score := NewScoringEngine().Compute(responses, make([]models.ValidatedCompetitor, 4))

		if len(score.Recommendations) < 3 {
			t.Fatalf("got %d recommendations, want several for a weak audit", len(score.Recommendations))
		}
		var mentionsCompetitors bool
		for _, rec := range score.Recommendations {
			if strings.Contains(rec, "4 competitors") {
				mentionsCompetitors = true
			}
		}
		if !mentionsCompetitors {
			t.Errorf("Recommendations = %v, want the competitor count surfaced", score.Recommendations)
		}
	})

	t.Run("strong audit", func(t *testing.T) {
		responses := []models.ProviderResponse{
			citedResponse(models.QueryTypeAlternatives, true),
			citedResponse(models.QueryTypeBestProviders, true),
		}
		score := NewScoringEngine().Compute(responses, nil)

		if len(score.Recommendations) != 1 {
			t.Fatalf("Recommendations = %v, want the single hold-position note", score.Recommendations)
		}
		if !strings.Contains(score.Recommendations[0], "Strong AI visibility") {
			t.Errorf("Recommendations[0] = %q", score.Recommendations[0])
		}
	})
}
