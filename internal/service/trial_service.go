package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/citelens/citelens-api/internal/abuse"
	"github.com/citelens/citelens-api/internal/models"
	"github.com/citelens/citelens-api/internal/repository"
)

// TrialService gates trial signups through the abuse guard and records
// every allowed attempt so future checks can see it.
type TrialService struct {
	guard  *abuse.Guard
	trials repository.TrialRepository
	logger *slog.Logger
}

// NewTrialService creates a trial eligibility service.
func NewTrialService(guard *abuse.Guard, trials repository.TrialRepository, logger *slog.Logger) *TrialService {
	return &TrialService{guard: guard, trials: trials, logger: logger}
}

// Check assesses a signup. Allowed signups are recorded; blocked ones
// return an AbuseBlockedError alongside the assessment so callers can
// surface the reason and alternative paths.
func (s *TrialService) Check(ctx context.Context, input models.AbuseCheckInput) (models.RiskAssessment, error) {
	assessment := s.guard.Assess(ctx, input)
	if assessment.Blocked {
		return assessment, &models.AbuseBlockedError{
			Reason: assessment.Reason,
			Score:  assessment.Score,
		}
	}

	record := &models.TrialRecord{
		ID:          ulid.Make().String(),
		Email:       input.Email,
		EmailNorm:   abuse.NormalizeEmail(input.Email),
		Fingerprint: input.Fingerprint,
		IPAddress:   input.IPAddress,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.trials.Create(ctx, record); err != nil {
		// Recording is best-effort; the user already passed the guard
		s.logger.Error("failed to record trial", "error", err)
	}

	return assessment, nil
}
