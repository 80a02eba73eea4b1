package repository

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/citelens/citelens-api/internal/models"
)

func testAudit(accountID string, createdAt time.Time) *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:              ulid.Make().String(),
		AccountID:       accountID,
		WebsiteURL:      "https://acme-widgets.com",
		BrandName:       "Acme Widgets",
		Industry:        "industrial supplies",
		CitationRate:    66.67,
		VisibilityScore: 68,
		Competitors: []models.ValidatedCompetitor{
			{Domain: "rival.com", Citations: 3, Verified: true},
		},
		TotalCostUSD: 0.0123,
		CreatedAt:    createdAt,
		CompletedAt:  createdAt.Add(40 * time.Second),
	}
}

func TestAuditRepositoryCreateAndGet(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	audit := testAudit("acct-1", time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	if err := repos.Audit.Create(ctx, audit); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repos.Audit.GetByID(ctx, audit.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetByID() returned nil for existing audit")
	}
	if got.VisibilityScore != 68 {
		t.Errorf("VisibilityScore = %d, want 68", got.VisibilityScore)
	}
	if len(got.Competitors) != 1 || got.Competitors[0].Domain != "rival.com" {
		t.Errorf("Competitors = %+v, want rival.com", got.Competitors)
	}
}

func TestAuditRepositoryGetMissing(t *testing.T) {
	repos := setupTestRepos(t)

	got, err := repos.Audit.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Error("GetByID() should return nil for a missing audit")
	}
}

func TestAuditRepositoryListByAccount(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := repos.Audit.Create(ctx, testAudit("acct-1", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := repos.Audit.Create(ctx, testAudit("acct-2", base)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repos.Audit.ListByAccount(ctx, "acct-1", 10, 0)
	if err != nil {
		t.Fatalf("ListByAccount() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListByAccount() returned %d audits, want 3", len(got))
	}
	// Newest first
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Error("audits should be ordered newest first")
	}

	page, err := repos.Audit.ListByAccount(ctx, "acct-1", 2, 2)
	if err != nil {
		t.Fatalf("ListByAccount() error = %v", err)
	}
	if len(page) != 1 {
		t.Errorf("paged list returned %d audits, want 1", len(page))
	}
}

func TestAuditRepositoryCountByAccountSince(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if err := repos.Audit.Create(ctx, testAudit("acct-1", base.AddDate(0, 0, -i*10))); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	count, err := repos.Audit.CountByAccountSince(ctx, "acct-1", base.AddDate(0, 0, -15))
	if err != nil {
		t.Fatalf("CountByAccountSince() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountByAccountSince() = %d, want 2", count)
	}

	count, err = repos.Audit.CountByAccountSince(ctx, "acct-other", base.AddDate(0, -1, 0))
	if err != nil {
		t.Fatalf("CountByAccountSince() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountByAccountSince() = %d for unused account, want 0", count)
	}
}
