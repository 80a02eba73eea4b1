package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/citelens/citelens-api/internal/http/mw"
	"github.com/citelens/citelens-api/internal/models"
	"github.com/citelens/citelens-api/internal/service"
)

// TrialHandler handles trial signup risk checks.
type TrialHandler struct {
	trialSvc *service.TrialService
}

// NewTrialHandler creates a new trial handler.
func NewTrialHandler(trialSvc *service.TrialService) *TrialHandler {
	return &TrialHandler{trialSvc: trialSvc}
}

// CheckTrialInput represents a trial signup check.
type CheckTrialInput struct {
	Body struct {
		Email       string `json:"email" format:"email" doc:"Signup email address"`
		Fingerprint string `json:"fingerprint,omitempty" doc:"Browser device fingerprint"`
	}
}

// CheckTrialOutput represents a trial risk assessment.
type CheckTrialOutput struct {
	Body struct {
		Allowed               bool               `json:"allowed" doc:"Whether the signup may proceed"`
		Score                 int                `json:"score" doc:"Aggregate risk score"`
		PaymentMethodRequired bool               `json:"payment_method_required" doc:"Whether a payment method must be attached before the trial starts"`
		Reason                string             `json:"reason,omitempty" doc:"First failing signal"`
		Checks                []models.RiskCheck `json:"checks,omitempty" doc:"Individual scored signals"`
		Suggestions           []string           `json:"suggestions,omitempty" doc:"Alternative onboarding paths when blocked"`
	}
}

// CheckTrial scores a trial signup for abuse and records it when allowed.
func (h *TrialHandler) CheckTrial(ctx context.Context, input *CheckTrialInput) (*CheckTrialOutput, error) {
	assessment, err := h.trialSvc.Check(ctx, models.AbuseCheckInput{
		Email:       input.Body.Email,
		Fingerprint: input.Body.Fingerprint,
		IPAddress:   mw.GetClientIP(ctx),
	})
	if err != nil {
		if models.IsAbuseBlocked(err) {
			out := &CheckTrialOutput{}
			out.Body.Allowed = false
			out.Body.Score = assessment.Score
			out.Body.Reason = assessment.Reason
			out.Body.Checks = assessment.Checks
			out.Body.Suggestions = assessment.Suggestions
			return out, nil
		}
		return nil, huma.Error500InternalServerError("trial check failed")
	}

	out := &CheckTrialOutput{}
	out.Body.Allowed = true
	out.Body.Score = assessment.Score
	out.Body.PaymentMethodRequired = assessment.PaymentMethodRequired
	out.Body.Reason = assessment.Reason
	out.Body.Checks = assessment.Checks
	return out, nil
}
