package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/citelens/citelens-api/internal/models"
)

type mockUsageRepo struct {
	summary *models.UsageSummary
	since   time.Time
}

func (m *mockUsageRepo) Record(_ context.Context, _, _, _, _ string, _, _ int, _ float64) error {
	return nil
}

func (m *mockUsageRepo) SummarySince(_ context.Context, accountID string, since time.Time) (*models.UsageSummary, error) {
	m.since = since
	s := *m.summary
	s.AccountID = accountID
	s.PeriodStart = since
	return &s, nil
}

func TestGetUsage(t *testing.T) {
	repo := &mockUsageRepo{summary: &models.UsageSummary{
		Audits:       7,
		InputTokens:  1200,
		OutputTokens: 800,
		CostUSD:      0.42,
	}}
	h := NewUsageHandler(repo)

	output, err := h.GetUsage(authedCtx("acct-1", "free"), &GetUsageInput{Period: "month"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Audits != 7 || output.Body.CostUSD != 0.42 {
		t.Errorf("summary not propagated: %+v", output.Body)
	}
	if repo.since.Day() != 1 {
		t.Errorf("month period should start on the 1st, got %v", repo.since)
	}

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := h.GetUsage(context.Background(), &GetUsageInput{Period: "month"})
		assertStatus(t, err, 401)
	})
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if got := periodStart("day", now); !got.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("day start = %v", got)
	}
	if got := periodStart("week", now); !got.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Errorf("week start = %v", got)
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := periodStart("month", now); !got.Equal(want) {
		t.Errorf("month start = %v, want %v", got, want)
	}
}
