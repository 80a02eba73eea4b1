package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/citelens/citelens-api/internal/models"
)

// NotifyService delivers signed admin notifications when an audit
// finishes. Delivery is fire-and-forget: failure is logged, never
// propagated into the audit result.
type NotifyService struct {
	url    string
	signer *svix.Webhook
	client *http.Client
	logger *slog.Logger
}

// NewNotifyService creates a notification service. An empty URL disables
// delivery entirely.
func NewNotifyService(url, signingSecret string, logger *slog.Logger) (*NotifyService, error) {
	svc := &NotifyService{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
	if url == "" {
		logger.Info("notify service disabled - no URL configured")
		return svc, nil
	}

	signer, err := svix.NewWebhook(signingSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook signer: %w", err)
	}
	svc.signer = signer
	return svc, nil
}

// AuditFinishedEvent is the payload posted to the notify URL.
type AuditFinishedEvent struct {
	Type            string    `json:"type"`
	AuditID         string    `json:"audit_id"`
	AccountID       string    `json:"account_id"`
	WebsiteURL      string    `json:"website_url"`
	BrandName       string    `json:"brand_name"`
	CitationRate    float64   `json:"citation_rate"`
	VisibilityScore int       `json:"visibility_score"`
	CompetitorCount int       `json:"competitor_count"`
	TotalCostUSD    float64   `json:"total_cost_usd"`
	CompletedAt     time.Time `json:"completed_at"`
}

// AuditFinished sends the finished-audit event in the background.
func (s *NotifyService) AuditFinished(result *models.AnalysisResult) {
	if s.url == "" {
		return
	}
	event := AuditFinishedEvent{
		Type:            "audit.finished",
		AuditID:         result.ID,
		AccountID:       result.AccountID,
		WebsiteURL:      result.WebsiteURL,
		BrandName:       result.BrandName,
		CitationRate:    result.CitationRate,
		VisibilityScore: result.VisibilityScore,
		CompetitorCount: len(result.Competitors),
		TotalCostUSD:    result.TotalCostUSD,
		CompletedAt:     result.CompletedAt,
	}
	go s.deliver(result.ID, event)
}

func (s *NotifyService) deliver(msgID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("notify: failed to marshal payload", "error", err)
		return
	}

	timestamp := time.Now()
	signature, err := s.signer.Sign(msgID, timestamp, body)
	if err != nil {
		s.logger.Error("notify: failed to sign payload", "error", err)
		return
	}

	// Retry up to 3 times with exponential backoff
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt*attempt) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			s.logger.Error("notify: failed to create request", "error", err)
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "CiteLens-Notify/1.0")
		req.Header.Set("svix-id", msgID)
		req.Header.Set("svix-timestamp", strconv.FormatInt(timestamp.Unix(), 10))
		req.Header.Set("svix-signature", signature)

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			s.logger.Warn("notify: delivery failed", "attempt", attempt+1, "error", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.logger.Info("notify: delivered", "status", resp.StatusCode)
			return
		}

		lastErr = fmt.Errorf("status %d", resp.StatusCode)
		s.logger.Warn("notify: non-success status", "status", resp.StatusCode, "attempt", attempt+1)
	}

	s.logger.Error("notify: delivery failed after retries", "error", lastErr)
}
