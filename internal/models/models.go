// Package models defines the data structures shared across the audit
// pipeline: prompts, provider responses, competitor records, scores, and
// trial risk assessments.
package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// QueryType classifies what kind of buyer question a prompt simulates.
// Scoring weighs citation coverage differently per type.
type QueryType string

const (
	QueryTypeAlternatives   QueryType = "alternatives"
	QueryTypeCompetitors    QueryType = "competitors"
	QueryTypeBestProviders  QueryType = "bestProviders"
	QueryTypeRecommendation QueryType = "recommendation"
	QueryTypeWhatDoes       QueryType = "whatDoes"
	QueryTypeComparison     QueryType = "comparison"
)

// Prompt is a single question sent to each AI provider.
type Prompt struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	Type QueryType `json:"type"`
}

// AnalysisRequest is the input to a citation audit.
type AnalysisRequest struct {
	AccountID   string   `json:"account_id"`
	WebsiteURL  string   `json:"website_url"`
	BrandName   string   `json:"brand_name"`
	Industry    string   `json:"industry"`
	Description string   `json:"description,omitempty"`
	Prompts     []Prompt `json:"prompts,omitempty"`
	Providers   []string `json:"providers,omitempty"`
}

// Validate checks the request fields that cannot be defaulted.
func (r *AnalysisRequest) Validate(maxPrompts int) error {
	if strings.TrimSpace(r.WebsiteURL) == "" {
		return &ValidationError{Field: "website_url", Message: "website URL is required"}
	}
	u, err := url.Parse(r.WebsiteURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: "website_url", Message: "website URL must be an absolute http(s) URL"}
	}
	if strings.TrimSpace(r.BrandName) == "" {
		return &ValidationError{Field: "brand_name", Message: "brand name is required"}
	}
	if strings.TrimSpace(r.Industry) == "" {
		return &ValidationError{Field: "industry", Message: "industry is required"}
	}
	if len(r.Prompts) > maxPrompts {
		return &ValidationError{
			Field:   "prompts",
			Message: fmt.Sprintf("at most %d prompts per audit", maxPrompts),
		}
	}
	return nil
}

// Domain returns the registrable host of the website URL, lowercased and
// stripped of a leading www.
func (r *AnalysisRequest) Domain() string {
	u, err := url.Parse(r.WebsiteURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// CompetitorMention is another domain surfaced in a provider answer,
// with the sentence-level context it appeared in.
type CompetitorMention struct {
	Domain  string `json:"domain"`
	Context string `json:"context,omitempty"`
}

// ProviderResponse is the outcome of one prompt against one provider.
// A failed call still produces a response with Err set; the pipeline
// counts it as not cited rather than dropping the slot.
type ProviderResponse struct {
	PromptID        string              `json:"prompt_id"`
	QueryType       QueryType           `json:"query_type"`
	Provider        string              `json:"provider"`
	Model           string              `json:"model,omitempty"`
	Text            string              `json:"text,omitempty"`
	InputTokens     int                 `json:"input_tokens,omitempty"`
	OutputTokens    int                 `json:"output_tokens,omitempty"`
	CostUSD         float64             `json:"cost_usd,omitempty"`
	IsCited         bool                `json:"is_cited"`
	CitationContext string              `json:"citation_context,omitempty"`
	Mentions        []CompetitorMention `json:"mentions,omitempty"`
	Err             string              `json:"error,omitempty"`
}

// Failed reports whether the provider call itself errored.
func (r *ProviderResponse) Failed() bool {
	return r.Err != ""
}

// CompetitorCandidate is an aggregated mention count for one domain
// before crawl validation.
type CompetitorCandidate struct {
	Domain     string              `json:"domain"`
	Citations  int                 `json:"citations"`
	QueryTypes []QueryType         `json:"query_types"`
	Mentions   []CompetitorMention `json:"mentions,omitempty"`
}

// ValidatedCompetitor is a candidate that survived (or was excused from)
// crawl validation.
type ValidatedCompetitor struct {
	Domain         string      `json:"domain"`
	Citations      int         `json:"citations"`
	QueryTypes     []QueryType `json:"query_types"`
	Verified       bool        `json:"verified"`
	SharedKeywords []string    `json:"shared_keywords,omitempty"`
}

// MissedTraffic estimates visitors lost to absent citations.
type MissedTraffic struct {
	MonthlyVisitors int `json:"monthly_visitors"`
	YearlyVisitors  int `json:"yearly_visitors"`
}

// SiteSummary is what the content fetcher extracted from the subject's
// homepage. All fields may be empty when the crawl degraded.
type SiteSummary struct {
	URL                 string   `json:"url"`
	Title               string   `json:"title,omitempty"`
	MetaDescription     string   `json:"meta_description,omitempty"`
	Headings            []string `json:"headings,omitempty"`
	StructuredDataCount int      `json:"structured_data_count"`
	FetchFailed         bool     `json:"fetch_failed,omitempty"`
}

// AnalysisResult is the completed audit.
type AnalysisResult struct {
	ID               string                `json:"id"`
	AccountID        string                `json:"account_id"`
	WebsiteURL       string                `json:"website_url"`
	BrandName        string                `json:"brand_name"`
	Industry         string                `json:"industry"`
	Site             SiteSummary           `json:"site"`
	Prompts          []Prompt              `json:"prompts"`
	Responses        []ProviderResponse    `json:"responses"`
	Competitors      []ValidatedCompetitor `json:"competitors"`
	CitationRate     float64               `json:"citation_rate"`
	VisibilityScore  int                   `json:"visibility_score"`
	MissedQueryTypes int                   `json:"missed_query_types"`
	MissedTraffic    MissedTraffic         `json:"missed_traffic"`
	Recommendations  []string              `json:"recommendations"`
	TotalCostUSD     float64               `json:"total_cost_usd,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	CompletedAt      time.Time             `json:"completed_at"`
}

// TrialRecord is a persisted signup attempt used by the abuse guard.
type TrialRecord struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	EmailNorm   string    `json:"email_norm"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AbuseCheckInput is everything the guard looks at for one signup.
type AbuseCheckInput struct {
	Email       string `json:"email"`
	Fingerprint string `json:"fingerprint,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
}

// RiskCheck is one scored signal from the abuse guard.
type RiskCheck struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Detail string `json:"detail,omitempty"`
}

// RiskAssessment is the guard's verdict on a trial signup.
type RiskAssessment struct {
	Score                 int         `json:"score"`
	Blocked               bool        `json:"blocked"`
	PaymentMethodRequired bool        `json:"payment_method_required"`
	Reason                string      `json:"reason,omitempty"`
	Checks                []RiskCheck `json:"checks,omitempty"`
	Suggestions           []string    `json:"suggestions,omitempty"`
}

// UsageSummary aggregates an account's consumption over a period.
type UsageSummary struct {
	AccountID    string    `json:"account_id"`
	PeriodStart  time.Time `json:"period_start"`
	Audits       int       `json:"audits"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
}
