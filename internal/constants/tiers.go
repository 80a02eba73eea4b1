// Package constants defines centralized configuration for plan tier limits
// and pipeline bounds. Change values here to update limits across the
// entire application.
package constants

import (
	"strings"
	"sync"
)

// tiersMu protects concurrent access to the Tiers map.
var tiersMu sync.RWMutex

// Tier names
const (
	TierFree     = "free"
	TierStarter  = "starter"
	TierPro      = "pro"
	TierInternal = "internal"
)

// TierLimits defines the numeric limits for a plan tier.
type TierLimits struct {
	// DisplayName is the user-facing name for this tier.
	DisplayName string
	// Order controls the display order in pricing tables (lower = first).
	Order int
	// MonthlyAudits is the max audits per billing month (0 = unlimited).
	MonthlyAudits int
	// RequestsPerMinute is the per-account sliding-window capacity (0 = unlimited).
	RequestsPerMinute int
	// MaxPromptsPerAudit caps the prompt list on a single audit request.
	MaxPromptsPerAudit int
	// MaxProvidersPerAudit caps the provider list on a single audit request.
	MaxProvidersPerAudit int
	// Bypass exempts the tier from both rate-limit gates (admin accounts).
	Bypass bool
}

// Tiers defines limits for each plan tier.
var Tiers = map[string]TierLimits{
	TierFree: {
		DisplayName:          "Free",
		Order:                0,
		MonthlyAudits:        400,
		RequestsPerMinute:    10,
		MaxPromptsPerAudit:   10,
		MaxProvidersPerAudit: 2,
	},
	TierStarter: {
		DisplayName:          "Starter",
		Order:                1,
		MonthlyAudits:        1000,
		RequestsPerMinute:    30,
		MaxPromptsPerAudit:   10,
		MaxProvidersPerAudit: 3,
	},
	TierPro: {
		DisplayName:          "Pro",
		Order:                2,
		MonthlyAudits:        5000,
		RequestsPerMinute:    60,
		MaxPromptsPerAudit:   10,
		MaxProvidersPerAudit: 5,
	},
	TierInternal: {
		DisplayName:          "Internal",
		Order:                3,
		MonthlyAudits:        0, // Unlimited
		RequestsPerMinute:    0, // Unlimited
		MaxPromptsPerAudit:   10,
		MaxProvidersPerAudit: 5,
		Bypass:               true,
	},
}

// GetTierLimits returns the limits for a tier, defaulting to the free tier.
// Thread-safe for concurrent access.
func GetTierLimits(tier string) TierLimits {
	tiersMu.RLock()
	defer tiersMu.RUnlock()

	if limits, ok := Tiers[tier]; ok {
		return limits
	}
	if limits, ok := Tiers[NormalizeTierName(tier)]; ok {
		return limits
	}
	return Tiers[TierFree]
}

// SetTierLimits replaces the limits for a tier. Used for externally tuned
// caps (env overrides at startup).
func SetTierLimits(tier string, limits TierLimits) {
	tiersMu.Lock()
	defer tiersMu.Unlock()
	Tiers[tier] = limits
}

// NormalizeTierName strips billing-system prefixes from tier names
// (e.g. "plan_v1_starter" -> "starter").
func NormalizeTierName(tier string) string {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if idx := strings.LastIndex(tier, "_"); idx >= 0 {
		return tier[idx+1:]
	}
	return tier
}
