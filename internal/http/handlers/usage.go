package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/citelens/citelens-api/internal/repository"
)

// UsageHandler handles usage endpoints.
type UsageHandler struct {
	usageRepo repository.UsageRepository
}

// NewUsageHandler creates a new usage handler.
func NewUsageHandler(usageRepo repository.UsageRepository) *UsageHandler {
	return &UsageHandler{usageRepo: usageRepo}
}

// GetUsageInput represents a usage request.
type GetUsageInput struct {
	Period string `query:"period" default:"month" enum:"day,week,month" doc:"Time period for the usage summary"`
}

// GetUsageOutput represents a usage response.
type GetUsageOutput struct {
	Body struct {
		PeriodStart  time.Time `json:"period_start" doc:"Start of the summarized period"`
		Audits       int       `json:"audits" doc:"Audits run in the period"`
		InputTokens  int64     `json:"input_tokens" doc:"Prompt tokens consumed"`
		OutputTokens int64     `json:"output_tokens" doc:"Completion tokens consumed"`
		CostUSD      float64   `json:"cost_usd" doc:"Estimated provider cost in USD"`
	}
}

// GetUsage returns the account's consumption for the requested period.
func (h *UsageHandler) GetUsage(ctx context.Context, input *GetUsageInput) (*GetUsageOutput, error) {
	accountID := getAccountID(ctx)
	if accountID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	summary, err := h.usageRepo.SummarySince(ctx, accountID, periodStart(input.Period, time.Now()))
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get usage")
	}

	out := &GetUsageOutput{}
	out.Body.PeriodStart = summary.PeriodStart
	out.Body.Audits = summary.Audits
	out.Body.InputTokens = summary.InputTokens
	out.Body.OutputTokens = summary.OutputTokens
	out.Body.CostUSD = summary.CostUSD
	return out, nil
}

// periodStart maps a named period to its starting instant. "month" is the
// calendar month so it lines up with the monthly audit ceiling.
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "day":
		return now.Add(-24 * time.Hour)
	case "week":
		return now.Add(-7 * 24 * time.Hour)
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}
