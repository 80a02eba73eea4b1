package handlers

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/citelens/citelens-api/internal/models"
	"github.com/citelens/citelens-api/internal/repository"
	"github.com/citelens/citelens-api/internal/service"
)

// AuditHandler handles citation audit endpoints.
type AuditHandler struct {
	auditSvc  *service.AuditService
	auditRepo repository.AuditRepository
	logger    *slog.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(auditSvc *service.AuditService, auditRepo repository.AuditRepository, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		auditSvc:  auditSvc,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// RunAuditInput represents an audit request.
type RunAuditInput struct {
	Body struct {
		WebsiteURL  string          `json:"website_url" minLength:"1" doc:"Absolute URL of the site to audit"`
		BrandName   string          `json:"brand_name" minLength:"1" doc:"Brand name as buyers would type it"`
		Industry    string          `json:"industry" minLength:"1" doc:"Industry or category the brand competes in"`
		Description string          `json:"description,omitempty" doc:"Optional one-line description used when industry is too generic"`
		Prompts     []models.Prompt `json:"prompts,omitempty" doc:"Custom prompts; generated from brand and industry when omitted"`
		Providers   []string        `json:"providers,omitempty" doc:"AI providers to query; all enabled providers when omitted"`
	}
}

// RunAuditOutput represents a completed audit.
type RunAuditOutput struct {
	Body models.AnalysisResult
}

// RunAudit runs a citation audit synchronously and returns the result.
func (h *AuditHandler) RunAudit(ctx context.Context, input *RunAuditInput) (*RunAuditOutput, error) {
	accountID := getAccountID(ctx)
	if accountID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	req := models.AnalysisRequest{
		AccountID:   accountID,
		WebsiteURL:  input.Body.WebsiteURL,
		BrandName:   input.Body.BrandName,
		Industry:    input.Body.Industry,
		Description: input.Body.Description,
		Prompts:     input.Body.Prompts,
		Providers:   input.Body.Providers,
	}

	result, err := h.auditSvc.Run(ctx, req, getAccountTier(ctx))
	if err != nil {
		return nil, h.mapAuditError(err)
	}

	return &RunAuditOutput{Body: *result}, nil
}

// mapAuditError converts pipeline errors to HTTP status errors.
func (h *AuditHandler) mapAuditError(err error) error {
	switch {
	case models.IsValidationError(err):
		return huma.Error422UnprocessableEntity(err.Error())
	case models.IsProviderError(err):
		// No provider produced a single answer
		return huma.Error502BadGateway(err.Error())
	default:
		if h.logger != nil {
			h.logger.Error("audit failed", "error", err)
		}
		return huma.Error500InternalServerError("audit failed")
	}
}

// GetAuditInput represents an audit lookup.
type GetAuditInput struct {
	ID string `path:"id" doc:"Audit ID"`
}

// GetAuditOutput represents a stored audit.
type GetAuditOutput struct {
	Body models.AnalysisResult
}

// GetAudit returns a stored audit result.
func (h *AuditHandler) GetAudit(ctx context.Context, input *GetAuditInput) (*GetAuditOutput, error) {
	accountID := getAccountID(ctx)
	if accountID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	result, err := h.auditRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load audit")
	}
	// Existence of other accounts' audits is not disclosed
	if result == nil || result.AccountID != accountID {
		return nil, huma.Error404NotFound("audit not found")
	}

	return &GetAuditOutput{Body: *result}, nil
}

// ListAuditsInput represents an audit list request.
type ListAuditsInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Page size"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// ListAuditsOutput represents a page of audits.
type ListAuditsOutput struct {
	Body struct {
		Audits []*models.AnalysisResult `json:"audits"`
		Limit  int                      `json:"limit"`
		Offset int                      `json:"offset"`
	}
}

// ListAudits returns the account's audits, newest first.
func (h *AuditHandler) ListAudits(ctx context.Context, input *ListAuditsInput) (*ListAuditsOutput, error) {
	accountID := getAccountID(ctx)
	if accountID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	audits, err := h.auditRepo.ListByAccount(ctx, accountID, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list audits")
	}
	if audits == nil {
		audits = []*models.AnalysisResult{}
	}

	out := &ListAuditsOutput{}
	out.Body.Audits = audits
	out.Body.Limit = input.Limit
	out.Body.Offset = input.Offset
	return out, nil
}
