package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/citelens/citelens-api/internal/models"
	"github.com/citelens/citelens-api/internal/repository"
)

// AdminHandler serves the admin-only review surface.
type AdminHandler struct {
	trials repository.TrialRepository
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(trials repository.TrialRepository) *AdminHandler {
	return &AdminHandler{trials: trials}
}

// ListTrialsInput represents an admin trial-record listing request.
type ListTrialsInput struct {
	Hours int `query:"hours" default:"168" minimum:"1" maximum:"2160" doc:"Lookback window in hours"`
}

// ListTrialsOutput represents recent trial signup records.
type ListTrialsOutput struct {
	Body struct {
		Trials []models.TrialRecord `json:"trials" doc:"Trial signups inside the window, for abuse review"`
	}
}

// ListTrials returns recent trial signup records so operators can review
// abuse-guard activity. Admin-only.
func (h *AdminHandler) ListTrials(ctx context.Context, input *ListTrialsInput) (*ListTrialsOutput, error) {
	if getAccountID(ctx) == "" {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	hours := input.Hours
	if hours <= 0 {
		hours = 168
	}

	trials, err := h.trials.TrialsSince(ctx, time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list trials")
	}
	if trials == nil {
		trials = []models.TrialRecord{}
	}

	out := &ListTrialsOutput{}
	out.Body.Trials = trials
	return out, nil
}
