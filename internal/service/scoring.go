package service

import (
	"fmt"
	"math"

	"github.com/citelens/citelens-api/internal/models"
)

// ScoringEngine turns citation outcomes and validated competitors into the
// audit's headline numbers.
type ScoringEngine struct{}

// NewScoringEngine creates a scoring engine.
func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{}
}

// Score holds everything the engine derives for one audit.
type Score struct {
	CitationRate     float64
	VisibilityScore  int
	MissedQueryTypes int
	MissedTraffic    models.MissedTraffic
	Recommendations  []string
}

// Compute aggregates responses and competitors into the final score.
// Tombstone responses count against the citation rate: a query the
// provider failed to answer is a query the subject was not cited in.
func (s *ScoringEngine) Compute(responses []models.ProviderResponse, competitors []models.ValidatedCompetitor) Score {
	total := len(responses)
	if total == 0 {
		return Score{}
	}

	cited := 0
	citedTypes := make(map[models.QueryType]bool)
	for _, resp := range responses {
		if resp.IsCited {
			cited++
			citedTypes[resp.QueryType] = true
		}
	}

	rate := 100 * float64(cited) / float64(total)

	visibility := 20.0
	visibility += math.Min(rate*0.5, 50)
	switch {
	case len(competitors) == 0:
		visibility += 15
	case len(competitors) <= 2:
		visibility += 5
	}
	if citedTypes[models.QueryTypeAlternatives] {
		visibility += 10
	}
	if citedTypes[models.QueryTypeBestProviders] {
		visibility += 5
	}
	visibility = math.Max(0, math.Min(100, visibility))

	missedTypes := 5 - int(math.Round(rate/20))
	if missedTypes < 0 {
		missedTypes = 0
	}

	competitorFactor := 1 + math.Min(float64(len(competitors))*0.1, 0.5)
	monthly := int(math.Round(100 * float64(missedTypes) * competitorFactor))

	return Score{
		CitationRate:     math.Round(rate*100) / 100,
		VisibilityScore:  int(math.Round(visibility)),
		MissedQueryTypes: missedTypes,
		MissedTraffic: models.MissedTraffic{
			MonthlyVisitors: monthly,
			YearlyVisitors:  monthly * 12,
		},
		Recommendations: s.recommend(rate, citedTypes, competitors),
	}
}

// recommend produces the action list shown alongside the score.
func (s *ScoringEngine) recommend(rate float64, citedTypes map[models.QueryType]bool, competitors []models.ValidatedCompetitor) []string {
	var recs []string

	if rate < 50 {
		recs = append(recs, "Publish authoritative comparison and alternatives pages so AI assistants have citable sources for your brand.")
	}
	if !citedTypes[models.QueryTypeAlternatives] {
		recs = append(recs, "You are absent from \"alternatives to\" answers, the highest-intent query type. Add content positioning your brand against named competitors.")
	}
	if !citedTypes[models.QueryTypeBestProviders] {
		recs = append(recs, "Target \"best provider\" roundups: earn placements in industry lists and reviews that AI assistants cite.")
	}
	if len(competitors) > 2 {
		recs = append(recs, fmt.Sprintf("%d competitors appear in answers about your space. Publish head-to-head comparisons for each.", len(competitors)))
	}
	if len(recs) == 0 {
		recs = append(recs, "Strong AI visibility. Keep structured data and key landing pages current to hold the position.")
	}

	return recs
}
