// Package abuse scores trial signups for free-tier farming: recycled email
// aliases, repeated devices and IPs, throwaway domains, and burst patterns.
package abuse

import (
	"context"
	"log/slog"
	"time"

	"github.com/citelens/citelens-api/internal/models"
)

// Signal scores. Individual signals stay below the block threshold so a
// single weak indicator never blocks on its own; combinations do.
const (
	ScoreSimilarEmail     = 40
	ScoreDisposableDomain = 35
	ScoreRepeatedDevice   = 30
	ScoreRepeatedIP       = 25
	ScoreBurstPattern     = 20
)

// Signal thresholds.
const (
	emailSimilarityThreshold = 0.8
	repeatedDeviceMin        = 2
	repeatedIPMin            = 3
	burstTrialMin            = 3
	burstWindow              = 24 * time.Hour
)

// onboardingAlternatives is offered on every block: the block is always
// recoverable, never a permanent ban.
var onboardingAlternatives = []string{
	"Start on a paid plan with a payment method attached",
	"Retry after the trial cooldown period ends",
	"Contact support to verify your account manually",
}

// TrialHistory is the persistence the guard reads prior signups from.
type TrialHistory interface {
	TrialsSince(ctx context.Context, since time.Time) ([]models.TrialRecord, error)
	CountByFingerprint(ctx context.Context, fingerprint string, since time.Time) (int, error)
	CountByIP(ctx context.Context, ip string, since time.Time) (int, error)
}

// Guard assesses trial signups against prior trial history.
type Guard struct {
	history          TrialHistory
	logger           *slog.Logger
	cooldown         time.Duration
	blockThreshold   int
	paymentThreshold int

	// now is injectable for tests.
	now func() time.Time
}

// GuardConfig holds the tunable thresholds for a Guard.
type GuardConfig struct {
	Cooldown         time.Duration // Lookback for email similarity (default 90 days)
	BlockThreshold   int           // Total score at or above which signups are blocked
	PaymentThreshold int           // Total score above which a payment method is required
}

// NewGuard creates a trial abuse guard.
func NewGuard(history TrialHistory, logger *slog.Logger, cfg GuardConfig) *Guard {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 90 * 24 * time.Hour
	}
	if cfg.BlockThreshold <= 0 {
		cfg.BlockThreshold = 50
	}
	if cfg.PaymentThreshold <= 0 {
		cfg.PaymentThreshold = 25
	}
	return &Guard{
		history:          history,
		logger:           logger,
		cooldown:         cfg.Cooldown,
		blockThreshold:   cfg.BlockThreshold,
		paymentThreshold: cfg.PaymentThreshold,
		now:              time.Now,
	}
}

// Assess scores a signup. Checks run in a fixed priority order so the
// reported reason is always the strongest class of signal present. Lookup
// failures skip the affected check rather than blocking the signup.
func (g *Guard) Assess(ctx context.Context, input models.AbuseCheckInput) models.RiskAssessment {
	assessment := models.RiskAssessment{}
	now := g.now()

	addCheck := func(name string, score int, detail string) {
		assessment.Score += score
		assessment.Checks = append(assessment.Checks, models.RiskCheck{
			Name:   name,
			Score:  score,
			Detail: detail,
		})
		if assessment.Reason == "" {
			assessment.Reason = name
		}
	}

	if g.hasSimilarPriorEmail(ctx, input.Email, now) {
		addCheck("similar_email", ScoreSimilarEmail, "matches a recent trial address")
	}

	if input.Fingerprint != "" {
		count, err := g.history.CountByFingerprint(ctx, input.Fingerprint, now.Add(-g.cooldown))
		if err != nil {
			g.logWarn("fingerprint lookup failed", err)
		} else if count >= repeatedDeviceMin {
			addCheck("repeated_device", ScoreRepeatedDevice, "device seen on prior trials")
		}
	}

	if input.IPAddress != "" {
		count, err := g.history.CountByIP(ctx, input.IPAddress, now.Add(-g.cooldown))
		if err != nil {
			g.logWarn("ip lookup failed", err)
		} else if count >= repeatedIPMin {
			addCheck("repeated_ip", ScoreRepeatedIP, "address seen on prior trials")
		}
	}

	if IsDisposableDomain(EmailDomain(input.Email)) {
		addCheck("disposable_email", ScoreDisposableDomain, "throwaway email provider")
	}

	if g.hasBurstPattern(ctx, input, now) {
		addCheck("signup_burst", ScoreBurstPattern, "multiple trials in 24h from same origin")
	}

	assessment.Blocked = assessment.Score >= g.blockThreshold
	assessment.PaymentMethodRequired = assessment.Score > g.paymentThreshold
	if !assessment.Blocked && !assessment.PaymentMethodRequired {
		assessment.Reason = ""
	}
	if assessment.Blocked {
		assessment.Suggestions = onboardingAlternatives
	}

	if g.logger != nil && assessment.Score > 0 {
		g.logger.Info("trial risk assessed",
			"score", assessment.Score,
			"blocked", assessment.Blocked,
			"payment_required", assessment.PaymentMethodRequired,
			"reason", assessment.Reason,
		)
	}

	return assessment
}

// hasSimilarPriorEmail compares the normalized address against every trial
// inside the cooldown window. Exact normalized matches and near matches
// both count.
func (g *Guard) hasSimilarPriorEmail(ctx context.Context, email string, now time.Time) bool {
	norm := NormalizeEmail(email)
	if norm == "" {
		return false
	}

	priors, err := g.history.TrialsSince(ctx, now.Add(-g.cooldown))
	if err != nil {
		g.logWarn("trial history lookup failed", err)
		return false
	}

	for _, prior := range priors {
		priorNorm := prior.EmailNorm
		if priorNorm == "" {
			priorNorm = NormalizeEmail(prior.Email)
		}
		if priorNorm == norm {
			return true
		}
		if Similarity(norm, priorNorm) > emailSimilarityThreshold {
			return true
		}
	}
	return false
}

// hasBurstPattern detects three or more trials inside 24h sharing this
// signup's IP or fingerprint.
func (g *Guard) hasBurstPattern(ctx context.Context, input models.AbuseCheckInput, now time.Time) bool {
	since := now.Add(-burstWindow)

	if input.Fingerprint != "" {
		count, err := g.history.CountByFingerprint(ctx, input.Fingerprint, since)
		if err != nil {
			g.logWarn("fingerprint burst lookup failed", err)
		} else if count >= burstTrialMin {
			return true
		}
	}

	if input.IPAddress != "" {
		count, err := g.history.CountByIP(ctx, input.IPAddress, since)
		if err != nil {
			g.logWarn("ip burst lookup failed", err)
		} else if count >= burstTrialMin {
			return true
		}
	}

	return false
}

func (g *Guard) logWarn(msg string, err error) {
	if g.logger != nil {
		g.logger.Warn(msg, "error", err)
	}
}
