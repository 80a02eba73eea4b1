package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/citelens/citelens-api/internal/models"
)

type mockAuditRepo struct {
	audits map[string]*models.AnalysisResult
	err    error
}

func (m *mockAuditRepo) Create(_ context.Context, result *models.AnalysisResult) error {
	if m.audits == nil {
		m.audits = make(map[string]*models.AnalysisResult)
	}
	m.audits[result.ID] = result
	return m.err
}

func (m *mockAuditRepo) GetByID(_ context.Context, id string) (*models.AnalysisResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.audits[id], nil
}

func (m *mockAuditRepo) ListByAccount(_ context.Context, accountID string, _, _ int) ([]*models.AnalysisResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.AnalysisResult
	for _, a := range m.audits {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAuditRepo) CountByAccountSince(_ context.Context, _ string, _ time.Time) (int, error) {
	return len(m.audits), m.err
}

func TestGetAudit(t *testing.T) {
	repo := &mockAuditRepo{audits: map[string]*models.AnalysisResult{
		"aud-1": {ID: "aud-1", AccountID: "acct-1", BrandName: "Acme"},
	}}
	h := NewAuditHandler(nil, repo, nil)

	t.Run("owner fetch", func(t *testing.T) {
		output, err := h.GetAudit(authedCtx("acct-1", "free"), &GetAuditInput{ID: "aud-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.Body.BrandName != "Acme" {
			t.Errorf("BrandName = %q, want Acme", output.Body.BrandName)
		}
	})

	t.Run("missing audit", func(t *testing.T) {
		_, err := h.GetAudit(authedCtx("acct-1", "free"), &GetAuditInput{ID: "nope"})
		assertStatus(t, err, 404)
	})

	t.Run("other account's audit", func(t *testing.T) {
		_, err := h.GetAudit(authedCtx("acct-2", "free"), &GetAuditInput{ID: "aud-1"})
		assertStatus(t, err, 404)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := h.GetAudit(context.Background(), &GetAuditInput{ID: "aud-1"})
		assertStatus(t, err, 401)
	})
}

func TestListAudits(t *testing.T) {
	repo := &mockAuditRepo{audits: map[string]*models.AnalysisResult{
		"aud-1": {ID: "aud-1", AccountID: "acct-1"},
		"aud-2": {ID: "aud-2", AccountID: "acct-2"},
	}}
	h := NewAuditHandler(nil, repo, nil)

	output, err := h.ListAudits(authedCtx("acct-1", "free"), &ListAuditsInput{Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Body.Audits) != 1 {
		t.Errorf("Audits = %d, want only the caller's", len(output.Body.Audits))
	}

	t.Run("empty page is a list, not null", func(t *testing.T) {
		output, err := h.ListAudits(authedCtx("acct-3", "free"), &ListAuditsInput{Limit: 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.Body.Audits == nil {
			t.Error("Audits should be an empty slice")
		}
	})
}

func TestMapAuditError(t *testing.T) {
	h := NewAuditHandler(nil, nil, nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &models.ValidationError{Field: "brand_name", Message: "required"}, 422},
		{"provider", &models.ProviderError{Provider: "openai", Err: errors.New("down")}, 502},
		{"internal", errors.New("boom"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertStatus(t, h.mapAuditError(tt.err), tt.want)
		})
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a %d error, got nil", want)
	}
	var statusErr huma.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error %v is not a status error", err)
	}
	if statusErr.GetStatus() != want {
		t.Errorf("status = %d, want %d", statusErr.GetStatus(), want)
	}
}
