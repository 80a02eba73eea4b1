package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	appconfig "github.com/citelens/citelens-api/internal/config"
	"github.com/citelens/citelens-api/internal/constants"
	"github.com/citelens/citelens-api/internal/llm"
	"github.com/citelens/citelens-api/internal/models"
	"github.com/citelens/citelens-api/internal/repository"
)

// ResultHook receives a finished audit result. Hooks run fire-and-forget
// after the result is finalized; a hook failure never alters the result.
type ResultHook func(result *models.AnalysisResult)

// AuditService orchestrates the full citation audit pipeline.
type AuditService struct {
	cfg        *appconfig.Config
	logger     *slog.Logger
	registry   *llm.Registry
	prompts    *PromptGenerator
	dispatcher *Dispatcher
	extractor  *CitationExtractor
	validator  *CompetitorValidator
	fetcher    PageFetcher
	scoring    *ScoringEngine
	repos      *repository.Repositories

	hooksMu sync.Mutex
	hooks   []ResultHook
}

// NewAuditService creates the audit orchestrator.
func NewAuditService(
	cfg *appconfig.Config,
	logger *slog.Logger,
	registry *llm.Registry,
	dispatcher *Dispatcher,
	validator *CompetitorValidator,
	fetcher PageFetcher,
	repos *repository.Repositories,
) *AuditService {
	return &AuditService{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		prompts:    NewPromptGenerator(),
		dispatcher: dispatcher,
		extractor:  NewCitationExtractor(),
		validator:  validator,
		fetcher:    fetcher,
		scoring:    NewScoringEngine(),
		repos:      repos,
	}
}

// AddResultHook registers a post-result hook.
func (s *AuditService) AddResultHook(hook ResultHook) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, hook)
}

type usageRow struct {
	provider     string
	model        string
	inputTokens  int
	outputTokens int
	costUSD      float64
}

// Run executes one audit end to end: resolve prompts and providers, fan
// out, extract citations, validate competitors, score, persist, and fire
// the result hooks.
func (s *AuditService) Run(ctx context.Context, req models.AnalysisRequest, tier string) (*models.AnalysisResult, error) {
	if err := req.Validate(s.cfg.MaxPromptsPerAudit); err != nil {
		return nil, err
	}

	providers, err := s.resolveProviders(req.Providers, tier)
	if err != nil {
		return nil, err
	}

	domain := req.Domain()
	brand := req.BrandName

	prompts := req.Prompts
	if len(prompts) == 0 {
		prompts = s.prompts.Generate(brand, domain, req.Industry, req.Description)
	}
	prompts = Clamp(prompts, s.cfg.MaxPromptsPerAudit)

	startedAt := time.Now().UTC()
	auditID := ulid.Make().String()

	s.logger.Info("audit started",
		"audit_id", auditID,
		"account_id", req.AccountID,
		"domain", domain,
		"prompts", len(prompts),
		"providers", providers,
	)

	// Subject crawl degrades, never fails the audit
	site := s.fetchSubject(ctx, req.WebsiteURL)

	var usageMu sync.Mutex
	var usage []usageRow
	responses := s.dispatcher.Dispatch(ctx, prompts, providers, func(provider, model string, in, out int, cost float64) {
		usageMu.Lock()
		usage = append(usage, usageRow{provider, model, in, out, cost})
		usageMu.Unlock()
	})

	for i := range responses {
		s.extractor.Extract(&responses[i], domain, brand)
	}

	candidates := s.validator.Aggregate(responses, domain)
	subjectKeywords := ExtractKeywords(SummaryText(site) + " " + req.Industry + " " + req.Description)
	competitors := s.validator.Validate(ctx, candidates, subjectKeywords)

	score := s.scoring.Compute(responses, competitors)

	totalCost := 0.0
	for _, row := range usage {
		totalCost += row.costUSD
	}

	result := &models.AnalysisResult{
		ID:               auditID,
		AccountID:        req.AccountID,
		WebsiteURL:       req.WebsiteURL,
		BrandName:        brand,
		Industry:         req.Industry,
		Site:             *site,
		Prompts:          prompts,
		Responses:        responses,
		Competitors:      competitors,
		CitationRate:     score.CitationRate,
		VisibilityScore:  score.VisibilityScore,
		MissedQueryTypes: score.MissedQueryTypes,
		MissedTraffic:    score.MissedTraffic,
		Recommendations:  score.Recommendations,
		TotalCostUSD:     totalCost,
		CreatedAt:        startedAt,
		CompletedAt:      time.Now().UTC(),
	}

	// Synchronous: the monthly gate reads this count
	if err := s.repos.Audit.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to persist audit: %w", err)
	}

	s.recordUsage(result, usage)
	s.runHooks(result)

	s.logger.Info("audit completed",
		"audit_id", auditID,
		"citation_rate", result.CitationRate,
		"visibility_score", result.VisibilityScore,
		"competitors", len(competitors),
		"cost_usd", totalCost,
		"duration", result.CompletedAt.Sub(startedAt),
	)

	return result, nil
}

// resolveProviders fills in defaults and applies the tier's provider cap.
func (s *AuditService) resolveProviders(requested []string, tier string) ([]string, error) {
	providers := requested
	if len(providers) == 0 {
		providers = s.registry.EnabledProviders()
	}
	if len(providers) == 0 {
		return nil, &models.ValidationError{Field: "providers", Message: "no providers available"}
	}

	for _, p := range providers {
		if !llm.IsValidProvider(p) {
			return nil, &models.ValidationError{Field: "providers", Message: fmt.Sprintf("unknown provider %q", p)}
		}
		if !s.registry.IsEnabled(p) {
			return nil, &models.ValidationError{Field: "providers", Message: fmt.Sprintf("provider %q is not configured", p)}
		}
	}

	limits := constants.GetTierLimits(tier)
	if limits.MaxProvidersPerAudit > 0 && len(providers) > limits.MaxProvidersPerAudit {
		providers = providers[:limits.MaxProvidersPerAudit]
	}
	return providers, nil
}

// fetchSubject crawls the subject homepage for comparison keywords. A
// failed crawl produces a degraded summary, not an error.
func (s *AuditService) fetchSubject(ctx context.Context, websiteURL string) *models.SiteSummary {
	summary, err := s.fetcher.FetchSummary(ctx, websiteURL, s.cfg.SubjectFetchTimeout)
	if err != nil || summary == nil {
		s.logger.Warn("subject crawl failed, continuing provider-only", "url", websiteURL, "error", err)
		return &models.SiteSummary{URL: websiteURL, FetchFailed: true}
	}
	return summary
}

// recordUsage persists per-call token accounting in the background.
func (s *AuditService) recordUsage(result *models.AnalysisResult, usage []usageRow) {
	if len(usage) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, row := range usage {
			err := s.repos.Usage.Record(ctx, result.AccountID, result.ID,
				row.provider, row.model, row.inputTokens, row.outputTokens, row.costUSD)
			if err != nil {
				s.logger.Error("failed to record usage", "audit_id", result.ID, "error", err)
			}
		}
	}()
}

// runHooks fires the post-result hooks without blocking the response.
func (s *AuditService) runHooks(result *models.AnalysisResult) {
	s.hooksMu.Lock()
	hooks := make([]ResultHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.hooksMu.Unlock()

	for _, hook := range hooks {
		go func(h ResultHook) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("result hook panicked", "panic", r)
				}
			}()
			h(result)
		}(hook)
	}
}
