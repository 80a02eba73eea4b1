package service

import (
	"fmt"
	"strings"

	"github.com/citelens/citelens-api/internal/models"
)

// PromptGenerator builds the query set an audit sends to each provider.
// It is a pure function of its inputs: no network, no randomness, same
// ordered list for the same (brand, domain, industry, description) tuple.
type PromptGenerator struct{}

// NewPromptGenerator creates a prompt generator.
func NewPromptGenerator() *PromptGenerator {
	return &PromptGenerator{}
}

// Generate returns 3-5 prompts phrased the way buyers actually ask.
// Industry-anchored phrasings are used when an industry is known,
// description-anchored otherwise, brand-only as the last fallback.
func (g *PromptGenerator) Generate(brand, domain, industry, description string) []models.Prompt {
	brand = strings.TrimSpace(brand)
	industry = strings.TrimSpace(industry)
	description = strings.TrimSpace(description)

	anchor := industry
	if anchor == "" {
		anchor = description
	}

	var prompts []models.Prompt
	add := func(queryType models.QueryType, text string) {
		prompts = append(prompts, models.Prompt{
			ID:   fmt.Sprintf("p%d-%s", len(prompts)+1, queryType),
			Text: text,
			Type: queryType,
		})
	}

	if anchor != "" {
		add(models.QueryTypeAlternatives, fmt.Sprintf("What are the best alternatives to %s for %s?", brand, anchor))
		add(models.QueryTypeCompetitors, fmt.Sprintf("Who are the main competitors of %s in %s?", brand, anchor))
		add(models.QueryTypeBestProviders, fmt.Sprintf("What are the best %s providers right now?", anchor))
		add(models.QueryTypeRecommendation, fmt.Sprintf("Can you recommend a reliable %s company? I'm considering %s.", anchor, brand))
	} else {
		add(models.QueryTypeAlternatives, fmt.Sprintf("What are the best alternatives to %s?", brand))
		add(models.QueryTypeCompetitors, fmt.Sprintf("Who are the main competitors of %s?", brand))
		add(models.QueryTypeRecommendation, fmt.Sprintf("Would you recommend %s (%s)? What else should I consider?", brand, domain))
	}

	add(models.QueryTypeWhatDoes, fmt.Sprintf("What does %s (%s) do, and is it well regarded?", brand, domain))

	return prompts
}

// Clamp trims a caller-supplied prompt list to the configured maximum,
// preserving order.
func Clamp(prompts []models.Prompt, max int) []models.Prompt {
	if max > 0 && len(prompts) > max {
		return prompts[:max]
	}
	return prompts
}
