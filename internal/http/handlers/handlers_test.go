package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/citelens/citelens-api/internal/http/mw"
)

func authedCtx(accountID, tier string) context.Context {
	return context.WithValue(context.Background(), mw.AccountClaimsKey, &mw.AccountClaims{
		AccountID: accountID,
		Tier:      tier,
	})
}

func TestHealthCheck(t *testing.T) {
	output, err := HealthCheck(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", output.Body.Status)
	}
	if output.Body.Version == "" {
		t.Error("Version should be populated")
	}
}

func TestLivez(t *testing.T) {
	output, err := Livez(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "ok" {
		t.Errorf("Status = %q, want ok", output.Body.Status)
	}
}

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping() error {
	return m.err
}

func TestReadyz(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		handler := NewReadyzHandler(&mockDBPinger{})
		output, err := handler.Readyz(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.Body.Status != "ok" {
			t.Errorf("Status = %q, want ok", output.Body.Status)
		}
	})

	t.Run("database down", func(t *testing.T) {
		handler := NewReadyzHandler(&mockDBPinger{err: errors.New("connection failed")})
		if _, err := handler.Readyz(context.Background(), nil); err == nil {
			t.Fatal("expected error when database ping fails")
		}
	})
}

func TestGetAccountID(t *testing.T) {
	if got := getAccountID(authedCtx("acct-1", "pro")); got != "acct-1" {
		t.Errorf("getAccountID() = %q, want acct-1", got)
	}
	if got := getAccountID(context.Background()); got != "" {
		t.Errorf("getAccountID() without claims = %q, want empty", got)
	}
}

func TestGetAccountTier(t *testing.T) {
	if got := getAccountTier(authedCtx("acct-1", "pro")); got != "pro" {
		t.Errorf("getAccountTier() = %q, want pro", got)
	}
	if got := getAccountTier(context.Background()); got != "free" {
		t.Errorf("getAccountTier() without claims = %q, want free", got)
	}
}
