package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-with-enough-entropy"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func authRequest(t *testing.T, token string) *httptest.ResponseRecorder {
	t.Helper()

	var captured *AccountClaims
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetAccountClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audits", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK && captured == nil {
		t.Fatal("handler ran without claims in context")
	}
	return rec
}

func TestAuthValidToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "acct-1",
		"email": "owner@example.com",
		"tier":  "pro",
		"admin": true,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	var captured *AccountClaims
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetAccountClaims(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured == nil {
		t.Fatal("expected claims in context")
	}
	if captured.AccountID != "acct-1" || captured.Tier != "pro" || !captured.Admin {
		t.Errorf("claims = %+v", captured)
	}
}

func TestAuthRejections(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		if rec := authRequest(t, ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{"sub": "acct-1"})
		if rec := authRequest(t, token); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "acct-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		if rec := authRequest(t, token); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("missing sub", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"email": "x@example.com"})
		if rec := authRequest(t, token); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestAuthDefaultsTierToFree(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "acct-2"})

	claims, err := validateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validateToken() error = %v", err)
	}
	if claims.Tier != "free" {
		t.Errorf("Tier = %q, want free", claims.Tier)
	}
	if claims.Admin {
		t.Error("Admin should default to false")
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("no claims: status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), AccountClaimsKey, &AccountClaims{AccountID: "a", Admin: true})
	req = req.WithContext(ctx)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", rec.Code)
	}
}
