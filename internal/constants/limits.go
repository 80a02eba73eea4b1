package constants

import "time"

// Request timeouts applied by the HTTP timeout middleware.
const (
	// DefaultRequestTimeout applies to most endpoints.
	DefaultRequestTimeout = 30 * time.Second
	// AuditRequestTimeout applies to audit endpoints, which fan out to AI
	// providers and crawl competitor homepages before responding.
	AuditRequestTimeout = 5 * time.Minute
)

// Pipeline bounds.
const (
	// MaxPromptsPerRequest is the hard cap on prompts in one audit.
	MaxPromptsPerRequest = 10
	// TopCandidatesForValidation is how many ranked competitor candidates
	// enter the crawl-and-compare round.
	TopCandidatesForValidation = 10
	// TopCompetitorsReturned bounds the validated competitor list on a result.
	TopCompetitorsReturned = 5
	// CitationContextRadius is the excerpt size (bytes each side, clamped
	// to rune boundaries) captured around a citation or competitor mention.
	CitationContextRadius = 160
)

// GlobalIPRateLimitPerMinute is the fallback per-IP rate limit for
// unauthenticated traffic. Authenticated accounts get tier-based limits.
const GlobalIPRateLimitPerMinute = 100
