// Package mw contains HTTP middleware for the citelens-api.
package mw

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// AccountClaimsKey is the context key for account claims.
	AccountClaimsKey ContextKey = "account_claims"
	// ClientIPKey is the context key for the client IP set by ClientIP.
	ClientIPKey ContextKey = "client_ip"
)

// AccountClaims represents the authenticated account extracted from a JWT.
type AccountClaims struct {
	AccountID string // sub claim
	Email     string
	Tier      string // "free", "starter", "pro", "internal"
	Admin     bool
}

// Auth returns an authentication middleware that validates HS256 JWTs
// issued by the dashboard against the shared secret.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			token := authHeader
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}

			claims, err := validateToken(jwtSecret, token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AccountClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateToken parses and verifies a JWT and converts it to AccountClaims.
func validateToken(secret, tokenString string) (*AccountClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	sub, _ := mapClaims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}

	claims := &AccountClaims{AccountID: sub, Tier: "free"}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if tier, ok := mapClaims["tier"].(string); ok && tier != "" {
		claims.Tier = tier
	}
	if admin, ok := mapClaims["admin"].(bool); ok {
		claims.Admin = admin
	}

	return claims, nil
}

// GetAccountClaims retrieves account claims from context.
func GetAccountClaims(ctx context.Context) *AccountClaims {
	claims, ok := ctx.Value(AccountClaimsKey).(*AccountClaims)
	if !ok {
		return nil
	}
	return claims
}

// RequireAdmin returns middleware that requires the admin claim.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetAccountClaims(r.Context())
			if claims == nil || !claims.Admin {
				http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns middleware that stores the client IP in the request
// context so huma handlers can read it. Assumes middleware.RealIP has
// already been applied.
func ClientIP() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ClientIPKey, extractIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientIP retrieves the client IP from context.
func GetClientIP(ctx context.Context) string {
	ip, ok := ctx.Value(ClientIPKey).(string)
	if !ok {
		return ""
	}
	return ip
}
