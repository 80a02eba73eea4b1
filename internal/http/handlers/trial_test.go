package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/citelens/citelens-api/internal/abuse"
	"github.com/citelens/citelens-api/internal/http/mw"
	"github.com/citelens/citelens-api/internal/models"
	"github.com/citelens/citelens-api/internal/service"
)

type mockTrialRepo struct {
	records []models.TrialRecord
}

func (m *mockTrialRepo) Create(_ context.Context, record *models.TrialRecord) error {
	m.records = append(m.records, *record)
	return nil
}

func (m *mockTrialRepo) TrialsSince(_ context.Context, since time.Time) ([]models.TrialRecord, error) {
	var out []models.TrialRecord
	for _, r := range m.records {
		if r.CreatedAt.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockTrialRepo) CountByFingerprint(_ context.Context, fingerprint string, _ time.Time) (int, error) {
	n := 0
	for _, r := range m.records {
		if r.Fingerprint == fingerprint {
			n++
		}
	}
	return n, nil
}

func (m *mockTrialRepo) CountByIP(_ context.Context, ip string, _ time.Time) (int, error) {
	n := 0
	for _, r := range m.records {
		if r.IPAddress == ip {
			n++
		}
	}
	return n, nil
}

func newTrialHandler(repo *mockTrialRepo) *TrialHandler {
	guard := abuse.NewGuard(repo, nil, abuse.GuardConfig{})
	return NewTrialHandler(service.NewTrialService(guard, repo, nil))
}

func ipCtx(ip string) context.Context {
	return context.WithValue(context.Background(), mw.ClientIPKey, ip)
}

func TestCheckTrialAllowed(t *testing.T) {
	repo := &mockTrialRepo{}
	h := newTrialHandler(repo)

	input := &CheckTrialInput{}
	input.Body.Email = "newuser@example.com"
	input.Body.Fingerprint = "fp-1"

	output, err := h.CheckTrial(ipCtx("203.0.113.7"), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !output.Body.Allowed {
		t.Errorf("clean signup should be allowed: %+v", output.Body)
	}
	if len(repo.records) != 1 {
		t.Fatalf("allowed signup should be recorded, got %d records", len(repo.records))
	}
	if repo.records[0].IPAddress != "203.0.113.7" {
		t.Errorf("recorded IP = %q, want client IP from context", repo.records[0].IPAddress)
	}
}

func TestCheckTrialBlocked(t *testing.T) {
	// Disposable email plus repeated device pushes the score past the
	// block threshold.
	repo := &mockTrialRepo{records: []models.TrialRecord{
		{Fingerprint: "fp-1", CreatedAt: time.Now().Add(-time.Hour)},
		{Fingerprint: "fp-1", CreatedAt: time.Now().Add(-2 * time.Hour)},
	}}
	h := newTrialHandler(repo)

	input := &CheckTrialInput{}
	input.Body.Email = "burner@mailinator.com"
	input.Body.Fingerprint = "fp-1"

	output, err := h.CheckTrial(ipCtx("203.0.113.7"), input)
	if err != nil {
		t.Fatalf("blocked signups respond 200 with allowed=false, got error %v", err)
	}
	if output.Body.Allowed {
		t.Error("abusive signup should not be allowed")
	}
	if output.Body.Reason == "" {
		t.Error("blocked response should carry a reason")
	}
	if len(output.Body.Suggestions) == 0 {
		t.Error("blocked response should offer alternative onboarding paths")
	}
	if len(repo.records) != 2 {
		t.Errorf("blocked signup must not be recorded, got %d records", len(repo.records))
	}
}
