package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/citelens/citelens-api/internal/abuse"
	"github.com/citelens/citelens-api/internal/config"
	"github.com/citelens/citelens-api/internal/llm"
	"github.com/citelens/citelens-api/internal/models"
	"github.com/citelens/citelens-api/internal/ratelimit"
	"github.com/citelens/citelens-api/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Audit   *AuditService
	Trial   *TrialService
	Storage *StorageService
	Notify  *NotifyService
	Gate    *ratelimit.Gate
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, repos *repository.Repositories, registry *llm.Registry, logger *slog.Logger) (*Services, error) {
	storageSvc, err := NewStorageService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	notifySvc, err := NewNotifyService(cfg.NotifyURL, cfg.NotifySigningSecret, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notify service: %w", err)
	}

	fetcher := NewCollyFetcher(logger)

	callOpts := DefaultLLMCallOptions()
	callOpts.Timeout = cfg.ProviderTimeout
	dispatcher := NewDispatcher(NewLLMClient(logger, registry), logger, callOpts)

	validator := NewCompetitorValidator(fetcher, logger, cfg.CompetitorValidationTimeout, cfg.CompetitorMinKeywordOverlap)

	auditSvc := NewAuditService(cfg, logger, registry, dispatcher, validator, fetcher, repos)

	guard := abuse.NewGuard(repos.Trial, logger, abuse.GuardConfig{
		Cooldown:         cfg.TrialCooldown,
		BlockThreshold:   cfg.RiskBlockThreshold,
		PaymentThreshold: cfg.RiskPaymentThreshold,
	})
	trialSvc := NewTrialService(guard, repos.Trial, logger)

	gate := ratelimit.NewGate(
		ratelimit.NewMinuteLimiter(cfg.RequestsPerMinute),
		ratelimit.NewMonthlyGate(repos.Audit),
	)

	svcs := &Services{
		Audit:   auditSvc,
		Trial:   trialSvc,
		Storage: storageSvc,
		Notify:  notifySvc,
		Gate:    gate,
	}

	// Post-result hooks: archive to object storage, notify admins
	auditSvc.AddResultHook(func(result *models.AnalysisResult) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := storageSvc.ArchiveResult(ctx, result); err != nil {
			logger.Error("failed to archive audit result", "audit_id", result.ID, "error", err)
		}
	})
	auditSvc.AddResultHook(notifySvc.AuditFinished)

	return svcs, nil
}
